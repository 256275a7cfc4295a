package session

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/rustyeddy/marginpilot/journal"
	"github.com/rustyeddy/marginpilot/quotes"
)

// Symbols lists every ticker the book references, positions and option
// underlyings alike.
func (s *Session) Symbols() []string {
	b := s.Book()
	var syms []string
	for _, p := range b.Positions {
		syms = append(syms, p.Symbol)
	}
	for _, o := range b.Options {
		syms = append(syms, o.Symbol)
	}
	return quotes.Symbols(syms)
}

// RefreshPrices pulls quotes for every symbol in the book and applies
// them. Symbols without a quote keep their last price. When nothing at
// all comes back the book is untouched and the source error is returned.
// A margin snapshot is journaled after a successful refresh.
func (s *Session) RefreshPrices(ctx context.Context, src quotes.Source) (map[string]float64, error) {
	syms := s.Symbols()
	if len(syms) == 0 {
		return map[string]float64{}, nil
	}

	prices, err := src.Quotes(ctx, syms)
	if err != nil && !errors.Is(err, quotes.ErrNoQuotes) {
		s.log.Warn("price refresh failed", zap.Error(err))
		return prices, err
	}
	if len(prices) == 0 {
		s.log.Warn("price refresh returned nothing", zap.Strings("symbols", syms))
		return prices, quotes.ErrNoQuotes
	}

	if _, err := s.UpdatePrices(ctx, prices); err != nil {
		return prices, err
	}
	if missing := len(syms) - len(prices); missing > 0 {
		s.log.Info("some symbols kept stale prices", zap.Int("missing", missing))
	}

	if err := s.RecordSnapshot(ctx); err != nil {
		// history is best effort
		s.log.Warn("snapshot not recorded", zap.Error(err))
	}
	return prices, nil
}

// RecordSnapshot journals the current margin status.
func (s *Session) RecordSnapshot(ctx context.Context) error {
	st := s.Status()
	return s.store.RecordSnapshot(ctx, journal.Snapshot{
		Time:             s.Now(),
		TotalMarketValue: st.TotalMarketValue,
		TotalEquity:      st.TotalEquity,
		MarginLoan:       s.Account().MarginLoan,
		MaintenanceReq:   st.MaintenanceRequired,
		MarginUsageRate:  st.MarginUsageRate,
		HealthLevel:      string(st.HealthLevel),
	})
}
