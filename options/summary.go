package options

import (
	"math"

	"github.com/rustyeddy/marginpilot/portfolio"
)

type Summary struct {
	TotalNotional     float64 `json:"totalNotional"`
	NetDelta          float64 `json:"netDelta"`
	TotalPremiumPaid  float64 `json:"totalPremiumPaid"`
	TotalCurrentValue float64 `json:"totalCurrentValue"`
	TotalPnl          float64 `json:"totalPnl"`
}

// Summarize aggregates the book. Net delta nets long against short;
// premium and current value add up contract magnitudes on both sides.
func Summarize(positions []portfolio.OptionPosition) Summary {
	var s Summary
	for _, p := range positions {
		lev := CalculateLeverage(p)
		contracts := math.Abs(p.Quantity) * portfolio.ContractMultiplier

		s.TotalNotional += lev.NotionalExposure
		s.NetDelta += lev.DeltaExposure
		s.TotalPremiumPaid += contracts * p.Premium
		s.TotalCurrentValue += contracts * p.CurrentPrice
	}
	s.TotalPnl = s.TotalCurrentValue - s.TotalPremiumPaid
	return s
}
