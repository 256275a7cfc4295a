package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// YahooURL is the public quote endpoint host.
const YahooURL = "https://query1.finance.yahoo.com"

// Yahoo reads regularMarketPrice from the v7 quote endpoint. One request
// covers every symbol.
type Yahoo struct {
	baseURL string
	http    *httpClient
}

func NewYahoo(baseURL string, opts HTTPOptions) *Yahoo {
	if baseURL == "" {
		baseURL = YahooURL
	}
	return &Yahoo{baseURL: strings.TrimRight(baseURL, "/"), http: newHTTPClient(opts)}
}

func (y *Yahoo) Name() string { return "yahoo" }

type yahooResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol             string  `json:"symbol"`
			RegularMarketPrice float64 `json:"regularMarketPrice"`
		} `json:"result"`
	} `json:"quoteResponse"`
}

func (y *Yahoo) Quotes(ctx context.Context, symbols []string) (map[string]float64, error) {
	symbols = Symbols(symbols)
	out := make(map[string]float64, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}

	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))

	header := http.Header{}
	header.Set("Accept", "application/json")
	// the endpoint rejects requests without a browser-like agent
	header.Set("User-Agent", "Mozilla/5.0 marginpilot")

	body, err := y.http.get(ctx, y.baseURL+"/v7/finance/quote?"+params.Encode(), header)
	if err != nil {
		return nil, err
	}

	var resp yahooResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("quotes: decode yahoo response: %w", err)
	}
	for _, q := range resp.QuoteResponse.Result {
		if q.Symbol == "" || q.RegularMarketPrice <= 0 {
			continue
		}
		out[strings.ToUpper(q.Symbol)] = q.RegularMarketPrice
	}
	return out, nil
}
