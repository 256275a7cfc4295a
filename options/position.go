package options

import (
	"time"

	"github.com/rustyeddy/marginpilot/portfolio"
)

// NewPosition prepares a manually entered or imported option position: the
// symbol is normalised and delta is estimated once, as of now. The stored
// delta is not refreshed when prices change.
func NewPosition(in portfolio.OptionPosition, now time.Time) portfolio.OptionPosition {
	in.Symbol = portfolio.NormalizeSymbol(in.Symbol)
	if in.CurrentPrice == 0 {
		in.CurrentPrice = in.Premium
	}
	return Refreeze(in, now)
}

// Refreeze re-estimates the stored delta from the position's current
// underlying price and the time left as of now.
func Refreeze(p portfolio.OptionPosition, now time.Time) portfolio.OptionPosition {
	dte := DaysToExpiration(p.Expiration, now)
	p.Delta = EstimateDelta(p.OptionType, p.Strike, p.UnderlyingPrice, dte)
	return p
}
