package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

const (
	FinnhubURL = "https://finnhub.io"

	// FinnhubMaxSymbols caps the per-symbol fan-out of one call.
	FinnhubMaxSymbols = 10
)

// Finnhub queries one symbol per request, field "c" being the current
// price.
type Finnhub struct {
	baseURL string
	token   string
	http    *httpClient
}

func NewFinnhub(baseURL, token string, opts HTTPOptions) *Finnhub {
	if baseURL == "" {
		baseURL = FinnhubURL
	}
	return &Finnhub{baseURL: strings.TrimRight(baseURL, "/"), token: token, http: newHTTPClient(opts)}
}

func (f *Finnhub) Name() string { return "finnhub" }

type finnhubQuote struct {
	Current float64 `json:"c"`
}

// Quotes fetches at most FinnhubMaxSymbols symbols concurrently. Symbols
// whose request fails are left out; the call only errors when nothing
// came back and at least one request failed.
func (f *Finnhub) Quotes(ctx context.Context, symbols []string) (map[string]float64, error) {
	if f.token == "" {
		return nil, ErrNoAPIKey
	}

	symbols = Symbols(symbols)
	if len(symbols) > FinnhubMaxSymbols {
		symbols = symbols[:FinnhubMaxSymbols]
	}

	var (
		mu       sync.Mutex
		out      = make(map[string]float64, len(symbols))
		firstErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, sym := range symbols {
		sym := sym
		g.Go(func() error {
			price, err := f.quote(gctx, sym)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return nil
			}
			if price > 0 {
				out[sym] = price
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(out) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (f *Finnhub) quote(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("token", f.token)

	body, err := f.http.get(ctx, f.baseURL+"/api/v1/quote?"+params.Encode(), nil)
	if err != nil {
		return 0, err
	}

	var q finnhubQuote
	if err := json.Unmarshal(body, &q); err != nil {
		return 0, fmt.Errorf("quotes: decode finnhub %s: %w", symbol, err)
	}
	return q.Current, nil
}
