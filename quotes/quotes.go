// Package quotes fetches latest prices for ticker symbols.
package quotes

import (
	"context"
	"errors"
	"sort"

	"github.com/rustyeddy/marginpilot/portfolio"
)

var (
	// ErrNoQuotes is returned when no source produced a single price.
	ErrNoQuotes = errors.New("quotes: no prices available")
	// ErrNoAPIKey means a keyed source was asked for prices without a key.
	ErrNoAPIKey = errors.New("quotes: api key not configured")
)

// Source maps symbols to their latest price. A result may be partial.
type Source interface {
	Name() string
	Quotes(ctx context.Context, symbols []string) (map[string]float64, error)
}

// Symbols normalizes, de-duplicates and sorts a symbol list, dropping
// blanks.
func Symbols(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = portfolio.NormalizeSymbol(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
