// Package session owns the in-memory book for one user and keeps the
// journal in step with every change.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/marginpilot/id"
	"github.com/rustyeddy/marginpilot/journal"
	"github.com/rustyeddy/marginpilot/portfolio"
	"github.com/rustyeddy/marginpilot/risk"
)

var ErrNotFound = errors.New("session: record not found")

// Clock supplies the current time.
type Clock func() time.Time

type Session struct {
	mu     sync.RWMutex
	book   portfolio.Book
	store  journal.Store
	ids    *id.Generator
	clock  Clock
	loc    *time.Location
	policy risk.Policy
	log    *zap.Logger
}

type Option func(*Session)

func WithClock(c Clock) Option { return func(s *Session) { s.clock = c } }

// WithLocation sets the zone used for trade dates and expirations.
func WithLocation(loc *time.Location) Option { return func(s *Session) { s.loc = loc } }

func WithPolicy(p risk.Policy) Option { return func(s *Session) { s.policy = p } }

func WithLogger(l *zap.Logger) Option { return func(s *Session) { s.log = l } }

func WithIDs(g *id.Generator) Option { return func(s *Session) { s.ids = g } }

// Open loads the book from store.
func Open(ctx context.Context, store journal.Store, opts ...Option) (*Session, error) {
	s := &Session{
		store:  store,
		clock:  time.Now,
		policy: risk.DefaultPolicy(),
		log:    zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.ids == nil {
		s.ids = id.NewGenerator(s.clock)
	}

	b, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}
	s.book = b
	s.log.Debug("session loaded",
		zap.Int("positions", len(b.Positions)),
		zap.Int("options", len(b.Options)),
		zap.Int("trades", len(b.Trades)),
	)
	return s, nil
}

// Now is the session clock, in the session's zone when one is set.
func (s *Session) Now() time.Time {
	now := s.clock()
	if s.loc != nil {
		now = now.In(s.loc)
	}
	return now
}

func (s *Session) Policy() risk.Policy { return s.policy }

// mutate applies fn to the book as currently stored and adopts the result
// once the store has committed it. Other processes may write the same
// journal, so fn always sees their changes rather than this session's
// last copy.
func (s *Session) mutate(ctx context.Context, op string, fn func(b *portfolio.Book) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fnErr error
	next, err := s.store.Update(ctx, func(b *portfolio.Book) error {
		fnErr = fn(b)
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		s.log.Error("save failed", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("session: %s: %w", op, err)
	}
	s.book = next
	s.log.Debug("book saved", zap.String("op", op))
	return nil
}

// Reload replaces the in-memory book with the stored one, picking up
// changes written by other processes.
func (s *Session) Reload(ctx context.Context) error {
	b, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("session: reload: %w", err)
	}
	s.mu.Lock()
	s.book = b
	s.mu.Unlock()
	return nil
}

// Book returns a copy of the whole book.
func (s *Session) Book() portfolio.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.book.Clone()
}

func (s *Session) Positions() []portfolio.Position { return s.Book().Positions }

func (s *Session) Account() portfolio.Account { return s.Book().Account }

func (s *Session) Options() []portfolio.OptionPosition { return s.Book().Options }

func (s *Session) Trades() []portfolio.Trade { return s.Book().Trades }

func (s *Session) SetAccount(ctx context.Context, a portfolio.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, "set account", func(b *portfolio.Book) error {
		b.Account = a
		return nil
	})
}
