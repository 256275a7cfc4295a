package session

import (
	"context"
	"fmt"

	"github.com/rustyeddy/marginpilot/options"
	"github.com/rustyeddy/marginpilot/portfolio"
)

// prepareOption falls back to the strike when no underlying price is
// known, as screenshot extraction does.
func (s *Session) prepareOption(o portfolio.OptionPosition) (portfolio.OptionPosition, error) {
	if o.UnderlyingPrice == 0 {
		o.UnderlyingPrice = o.Strike
	}
	o = options.NewPosition(o, s.Now())
	o.ID = s.ids.New()
	if err := o.Validate(); err != nil {
		return portfolio.OptionPosition{}, err
	}
	return o, nil
}

// AddOption stores a new option position with its delta estimated as of
// now.
func (s *Session) AddOption(ctx context.Context, o portfolio.OptionPosition) (portfolio.OptionPosition, error) {
	o, err := s.prepareOption(o)
	if err != nil {
		return portfolio.OptionPosition{}, err
	}
	err = s.mutate(ctx, "add option", func(b *portfolio.Book) error {
		b.Options = append(b.Options, o)
		return nil
	})
	return o, err
}

// ImportOptions appends the valid positions, each with a fresh delta.
func (s *Session) ImportOptions(ctx context.Context, in []portfolio.OptionPosition) (int, error) {
	var add []portfolio.OptionPosition
	for _, raw := range in {
		o, err := s.prepareOption(raw)
		if err != nil {
			s.log.Sugar().Warnw("skipping imported option", "symbol", raw.Symbol, "err", err)
			continue
		}
		add = append(add, o)
	}
	if len(add) == 0 {
		return 0, nil
	}
	err := s.mutate(ctx, "import options", func(b *portfolio.Book) error {
		b.Options = append(b.Options, add...)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(add), nil
}

func (s *Session) RemoveOption(ctx context.Context, optionID string) error {
	return s.mutate(ctx, "remove option", func(b *portfolio.Book) error {
		for i, o := range b.Options {
			if o.ID == optionID {
				b.Options = append(b.Options[:i], b.Options[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("option %q: %w", optionID, ErrNotFound)
	})
}

func (s *Session) ClearOptions(ctx context.Context) error {
	return s.mutate(ctx, "clear options", func(b *portfolio.Book) error {
		b.Options = []portfolio.OptionPosition{}
		return nil
	})
}

// RefreezeDeltas re-estimates every stored delta from current underlying
// prices and returns the updated positions.
func (s *Session) RefreezeDeltas(ctx context.Context) ([]portfolio.OptionPosition, error) {
	now := s.Now()
	var out []portfolio.OptionPosition
	err := s.mutate(ctx, "refreeze deltas", func(b *portfolio.Book) error {
		for i := range b.Options {
			b.Options[i] = options.Refreeze(b.Options[i], now)
		}
		out = append([]portfolio.OptionPosition(nil), b.Options...)
		return nil
	})
	return out, err
}
