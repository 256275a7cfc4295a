package session

import (
	"context"
	"fmt"

	"github.com/rustyeddy/marginpilot/portfolio"
)

func (s *Session) preparePosition(p portfolio.Position) (portfolio.Position, error) {
	p.ID = s.ids.New()
	p.Symbol = portfolio.NormalizeSymbol(p.Symbol)
	if err := p.Validate(); err != nil {
		return portfolio.Position{}, err
	}
	return p, nil
}

// AddPosition stores a new holding under a fresh id.
func (s *Session) AddPosition(ctx context.Context, p portfolio.Position) (portfolio.Position, error) {
	p, err := s.preparePosition(p)
	if err != nil {
		return portfolio.Position{}, err
	}
	err = s.mutate(ctx, "add position", func(b *portfolio.Book) error {
		b.Positions = append(b.Positions, p)
		return nil
	})
	return p, err
}

// UpdatePosition applies fn to the position with the given id. The id
// itself cannot be changed.
func (s *Session) UpdatePosition(ctx context.Context, positionID string, fn func(*portfolio.Position)) (portfolio.Position, error) {
	var updated portfolio.Position
	err := s.mutate(ctx, "update position", func(b *portfolio.Book) error {
		for i := range b.Positions {
			if b.Positions[i].ID != positionID {
				continue
			}
			p := b.Positions[i]
			fn(&p)
			p.ID = positionID
			p.Symbol = portfolio.NormalizeSymbol(p.Symbol)
			if err := p.Validate(); err != nil {
				return err
			}
			b.Positions[i] = p
			updated = p
			return nil
		}
		return fmt.Errorf("position %q: %w", positionID, ErrNotFound)
	})
	return updated, err
}

func (s *Session) RemovePosition(ctx context.Context, positionID string) error {
	return s.mutate(ctx, "remove position", func(b *portfolio.Book) error {
		for i, p := range b.Positions {
			if p.ID == positionID {
				b.Positions = append(b.Positions[:i], b.Positions[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("position %q: %w", positionID, ErrNotFound)
	})
}

// ImportPositions appends every valid position and reports how many were
// added. Invalid ones are skipped.
func (s *Session) ImportPositions(ctx context.Context, in []portfolio.Position) (int, error) {
	var add []portfolio.Position
	for _, raw := range in {
		p, err := s.preparePosition(raw)
		if err != nil {
			s.log.Sugar().Warnw("skipping imported position", "symbol", raw.Symbol, "err", err)
			continue
		}
		add = append(add, p)
	}
	if len(add) == 0 {
		return 0, nil
	}
	err := s.mutate(ctx, "import positions", func(b *portfolio.Book) error {
		b.Positions = append(b.Positions, add...)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(add), nil
}

// UpdatePrices sets the current price of positions and the underlying
// price of options whose symbol is in prices. Stored option deltas are
// left alone. It returns how many records changed.
func (s *Session) UpdatePrices(ctx context.Context, prices map[string]float64) (int, error) {
	if len(prices) == 0 {
		return 0, nil
	}

	changed := 0
	err := s.mutate(ctx, "update prices", func(b *portfolio.Book) error {
		for i, p := range b.Positions {
			if price, ok := prices[p.Symbol]; ok {
				b.Positions[i].CurrentPrice = price
				changed++
			}
		}
		for i, o := range b.Options {
			if price, ok := prices[o.Symbol]; ok {
				b.Options[i].UnderlyingPrice = price
				changed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}
