package risk

import "github.com/rustyeddy/marginpilot/portfolio"

// StressPoint is the margin snapshot at one shock level.
type StressPoint struct {
	DropPercent float64      `json:"dropPercent"`
	Status      MarginStatus `json:"status"`
}

// SimulateStress reprices every position down by dropPercent (0–100) and
// recomputes the margin status. The supplied positions are left untouched.
func SimulateStress(positions []portfolio.Position, account portfolio.Account, dropPercent float64) MarginStatus {
	return CalculateMarginStatus(shock(positions, dropPercent, func(portfolio.Position) bool { return true }), account)
}

// SimulateSymbolDrop applies the shock to a single symbol only.
func SimulateSymbolDrop(positions []portfolio.Position, account portfolio.Account, symbol string, dropPercent float64) MarginStatus {
	return CalculateMarginStatus(shock(positions, dropPercent, func(p portfolio.Position) bool {
		return p.Symbol == symbol
	}), account)
}

// StressLadder runs SimulateStress once per drop level, in order.
func StressLadder(positions []portfolio.Position, account portfolio.Account, drops []float64) []StressPoint {
	out := make([]StressPoint, 0, len(drops))
	for _, d := range drops {
		out = append(out, StressPoint{DropPercent: d, Status: SimulateStress(positions, account, d)})
	}
	return out
}

func shock(positions []portfolio.Position, dropPercent float64, match func(portfolio.Position) bool) []portfolio.Position {
	factor := 1 - dropPercent/100
	out := make([]portfolio.Position, len(positions))
	for i, p := range positions {
		if match(p) {
			p.CurrentPrice *= factor
		}
		out[i] = p
	}
	return out
}
