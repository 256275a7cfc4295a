package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/marginpilot/portfolio"
)

type SQLiteStore struct {
	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// NewSQLite opens (or creates) the database at path. Transactions take the
// write lock up front so a CLI process and a running server never
// interleave a read and a write of the book.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, err
	}
	// one writer keeps sqlite from returning SQLITE_BUSY under the api
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_txlock=immediate&_busy_timeout=5000"
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SQLiteStore) Load(ctx context.Context) (portfolio.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return portfolio.Book{}, ErrClosed
	}
	return readBook(ctx, s.db)
}

// Save writes all four collections in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, b portfolio.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := writeBook(ctx, tx, b); err != nil {
		return err
	}
	return tx.Commit()
}

// Update reads the stored book, applies fn and writes the result inside a
// single transaction, so changes made by other processes since this store
// last loaded are kept. Nothing is written when fn fails.
func (s *SQLiteStore) Update(ctx context.Context, fn func(*portfolio.Book) error) (portfolio.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return portfolio.Book{}, ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return portfolio.Book{}, err
	}
	defer func() { _ = tx.Rollback() }()

	b, err := readBook(ctx, tx)
	if err != nil {
		return portfolio.Book{}, err
	}
	if err := fn(&b); err != nil {
		return portfolio.Book{}, err
	}
	if err := writeBook(ctx, tx, b); err != nil {
		return portfolio.Book{}, err
	}
	if err := tx.Commit(); err != nil {
		return portfolio.Book{}, err
	}
	return b, nil
}

func readBook(ctx context.Context, q querier) (portfolio.Book, error) {
	raw, err := readAll(ctx, q)
	if err != nil {
		return portfolio.Book{}, err
	}

	var b portfolio.Book
	decode(raw[KeyPositions], &b.Positions)
	decode(raw[KeyAccount], &b.Account)
	decode(raw[KeyOptions], &b.Options)
	decode(raw[KeyTrades], &b.Trades)

	b.Positions = nonNil(b.Positions)
	b.Options = nonNil(b.Options)
	b.Trades = nonNil(b.Trades)
	return b, nil
}

func readAll(ctx context.Context, q querier) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT key, value FROM kv`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// decode leaves dst at its zero value when the stored document is missing
// or not valid JSON.
func decode(raw string, dst any) {
	if raw == "" {
		return
	}
	_ = json.Unmarshal([]byte(raw), dst)
}

func writeBook(ctx context.Context, tx *sql.Tx, b portfolio.Book) error {
	docs := []struct {
		key string
		val any
	}{
		{KeyPositions, nonNil(b.Positions)},
		{KeyAccount, b.Account},
		{KeyOptions, nonNil(b.Options)},
		{KeyTrades, nonNil(b.Trades)},
	}

	now := time.Now().UTC()
	for _, d := range docs {
		data, err := json.Marshal(d.val)
		if err != nil {
			return fmt.Errorf("journal: encode %s: %w", d.key, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			d.key, string(data), now,
		); err != nil {
			return fmt.Errorf("journal: write %s: %w", d.key, err)
		}
	}
	return nil
}

func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}

func (s *SQLiteStore) RecordSnapshot(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO margin_snapshots
		(time, total_market_value, total_equity, margin_loan, maintenance_req, margin_usage_rate, health_level)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.Time.UTC(), snap.TotalMarketValue, snap.TotalEquity, snap.MarginLoan,
		snap.MaintenanceReq, snap.MarginUsageRate, snap.HealthLevel,
	)
	return err
}

// SnapshotsSince returns snapshots taken at or after since, oldest first.
func (s *SQLiteStore) SnapshotsSince(ctx context.Context, since time.Time) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT time, total_market_value, total_equity, margin_loan, maintenance_req, margin_usage_rate, health_level
		FROM margin_snapshots
		WHERE time >= ?
		ORDER BY time ASC`, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(
			&snap.Time,
			&snap.TotalMarketValue,
			&snap.TotalEquity,
			&snap.MarginLoan,
			&snap.MaintenanceReq,
			&snap.MarginUsageRate,
			&snap.HealthLevel,
		); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
