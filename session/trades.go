package session

import (
	"context"
	"fmt"

	"github.com/rustyeddy/marginpilot/portfolio"
)

// AddTrade records a fill at the front of the log. An empty date means
// today in the session zone.
func (s *Session) AddTrade(ctx context.Context, t portfolio.Trade) (portfolio.Trade, error) {
	t.ID = s.ids.New()
	t.Symbol = portfolio.NormalizeSymbol(t.Symbol)
	if t.Date == "" {
		t.Date = s.Now().Format(portfolio.DateLayout)
	}
	if err := t.Validate(); err != nil {
		return portfolio.Trade{}, err
	}

	err := s.mutate(ctx, "add trade", func(b *portfolio.Book) error {
		b.Trades = append([]portfolio.Trade{t}, b.Trades...)
		return nil
	})
	return t, err
}

func (s *Session) RemoveTrade(ctx context.Context, tradeID string) error {
	return s.mutate(ctx, "remove trade", func(b *portfolio.Book) error {
		for i, t := range b.Trades {
			if t.ID == tradeID {
				b.Trades = append(b.Trades[:i], b.Trades[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("trade %q: %w", tradeID, ErrNotFound)
	})
}
