// Package journal persists the session book and imports or exports it as
// CSV.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/marginpilot/portfolio"
)

// Storage keys, one JSON document per collection.
const (
	KeyPositions = "mp-positions"
	KeyAccount   = "mp-account"
	KeyOptions   = "mp-options"
	KeyTrades    = "mp-trades"
)

var ErrClosed = errors.New("journal: store closed")

// Snapshot is one recorded reading of the account's margin health.
type Snapshot struct {
	Time             time.Time `json:"time"`
	TotalMarketValue float64   `json:"totalMarketValue"`
	TotalEquity      float64   `json:"totalEquity"`
	MarginLoan       float64   `json:"marginLoan"`
	MaintenanceReq   float64   `json:"maintenanceRequired"`
	MarginUsageRate  float64   `json:"marginUsageRate"`
	HealthLevel      string    `json:"healthLevel"`
}

// Store loads and saves the whole book. Load never fails on missing or
// unreadable collections; those come back empty. Update is the
// read-modify-write used for every change so concurrent writers sharing
// the database do not overwrite each other.
type Store interface {
	Load(ctx context.Context) (portfolio.Book, error)
	Save(ctx context.Context, b portfolio.Book) error
	Update(ctx context.Context, fn func(*portfolio.Book) error) (portfolio.Book, error)
	RecordSnapshot(ctx context.Context, s Snapshot) error
	SnapshotsSince(ctx context.Context, since time.Time) ([]Snapshot, error)
	Close() error
}
