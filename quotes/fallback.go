package quotes

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Fallback serves cached prices first and asks its sources in order for
// the rest. The first source to return any price wins; later sources are
// consulted only when earlier ones fail or come back empty.
type Fallback struct {
	sources []Source
	cache   *Cache
	log     *zap.Logger
	metrics *Metrics
}

type Option func(*Fallback)

func WithCache(c *Cache) Option { return func(f *Fallback) { f.cache = c } }

func WithLogger(l *zap.Logger) Option { return func(f *Fallback) { f.log = l } }

func WithMetrics(m *Metrics) Option { return func(f *Fallback) { f.metrics = m } }

func NewFallback(sources []Source, opts ...Option) *Fallback {
	f := &Fallback{sources: sources, log: zap.NewNop()}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *Fallback) Name() string { return "fallback" }

// Quotes returns whatever prices it could find. A partial result is not an
// error; an empty one is ErrNoQuotes.
func (f *Fallback) Quotes(ctx context.Context, symbols []string) (map[string]float64, error) {
	symbols = Symbols(symbols)
	out := make(map[string]float64, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}

	var misses []string
	for _, sym := range symbols {
		if f.cache != nil {
			if price, ok := f.cache.Get(sym); ok {
				out[sym] = price
				continue
			}
		}
		misses = append(misses, sym)
	}
	f.metrics.observe("cache", OutcomeCacheHit, len(out))
	if len(misses) == 0 {
		return out, nil
	}

	for _, src := range f.sources {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		got, err := src.Quotes(ctx, misses)
		switch {
		case errors.Is(err, ErrNoAPIKey):
			f.log.Warn("quote source skipped", zap.String("source", src.Name()), zap.Error(err))
			f.metrics.observe(src.Name(), OutcomeSkipped, 1)
			continue
		case err != nil:
			f.log.Warn("quote source failed", zap.String("source", src.Name()), zap.Error(err))
			f.metrics.observe(src.Name(), OutcomeError, 1)
			continue
		case len(got) == 0:
			f.log.Warn("quote source returned nothing", zap.String("source", src.Name()), zap.Strings("symbols", misses))
			f.metrics.observe(src.Name(), OutcomeEmpty, 1)
			continue
		}

		f.log.Debug("quotes fetched", zap.String("source", src.Name()), zap.Int("count", len(got)))
		f.metrics.observe(src.Name(), OutcomeOK, 1)
		for sym, price := range got {
			out[sym] = price
			if f.cache != nil {
				f.cache.Set(sym, price)
			}
		}
		break
	}

	if len(out) == 0 {
		return out, ErrNoQuotes
	}
	return out, nil
}
