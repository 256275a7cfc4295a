package ocr

import (
	"encoding/json"
	"strings"

	"github.com/rustyeddy/marginpilot/portfolio"
)

// ParsePositions pulls the first JSON array out of a model reply and keeps
// the records that carry every required field with the right type.
// Missing prices default the way the prompt asks: current price to the
// premium and underlying price to the strike.
func ParsePositions(content string) ([]portfolio.OptionPosition, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end < start {
		return nil, ErrUnparseable
	}

	var records []map[string]any
	if err := json.Unmarshal([]byte(content[start:end+1]), &records); err != nil {
		return nil, ErrUnparseable
	}

	out := make([]portfolio.OptionPosition, 0, len(records))
	for _, r := range records {
		p, ok := toPosition(r)
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func toPosition(r map[string]any) (portfolio.OptionPosition, bool) {
	symbol, ok := r["symbol"].(string)
	if !ok {
		return portfolio.OptionPosition{}, false
	}
	typ, _ := r["optionType"].(string)
	if typ != string(portfolio.Call) && typ != string(portfolio.Put) {
		return portfolio.OptionPosition{}, false
	}
	strike, ok1 := r["strike"].(float64)
	expiration, ok2 := r["expiration"].(string)
	premium, ok3 := r["premium"].(float64)
	quantity, ok4 := r["quantity"].(float64)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return portfolio.OptionPosition{}, false
	}

	current, ok := r["currentPrice"].(float64)
	if !ok {
		current = premium
	}
	underlying, ok := r["underlyingPrice"].(float64)
	if !ok {
		underlying = strike
	}

	return portfolio.OptionPosition{
		Symbol:          portfolio.NormalizeSymbol(symbol),
		OptionType:      portfolio.OptionType(typ),
		Strike:          strike,
		Expiration:      strings.TrimSpace(expiration),
		Premium:         premium,
		Quantity:        quantity,
		CurrentPrice:    current,
		UnderlyingPrice: underlying,
	}, true
}
