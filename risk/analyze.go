package risk

import (
	"sort"

	"github.com/rustyeddy/marginpilot/portfolio"
)

type PositionAnalysis struct {
	ID                  string  `json:"id"`
	Symbol              string  `json:"symbol"`
	MarketValue         float64 `json:"marketValue"`
	CostBasis           float64 `json:"costBasis"`
	PnL                 float64 `json:"pnl"`
	PnLPercent          float64 `json:"pnlPercent"`
	Weight              float64 `json:"weight"`
	MarginRequired      float64 `json:"marginRequired"`
	MarginFreedIfSold   float64 `json:"marginFreedIfSold"`
	NewMarginRateIfSold float64 `json:"newMarginRateIfSold"`
}

// AnalyzePositions reports, for each position, its performance and how much
// the margin usage rate would drop if that position alone were sold and the
// proceeds used to pay down the loan. Worst performers come first.
//
// Each entry recomputes the full portfolio, so the cost is quadratic in the
// number of positions.
func AnalyzePositions(positions []portfolio.Position, account portfolio.Account) []PositionAnalysis {
	status := CalculateMarginStatus(positions, account)

	out := make([]PositionAnalysis, 0, len(positions))
	for i, p := range positions {
		mv := p.MarketValue()
		cost := p.CostBasis()
		pnl := mv - cost

		var pnlPct float64
		if cost > 0 {
			pnlPct = pnl / cost * 100
		}

		after := CalculateMarginStatus(without(positions, i), portfolio.Account{
			MarginLoan:  maxf(0, account.MarginLoan-mv),
			CashBalance: account.CashBalance + mv,
		})

		out = append(out, PositionAnalysis{
			ID:                  p.ID,
			Symbol:              p.Symbol,
			MarketValue:         mv,
			CostBasis:           cost,
			PnL:                 pnl,
			PnLPercent:          pnlPct,
			Weight:              ratio(mv, status.TotalMarketValue),
			MarginRequired:      mv * p.MarginRate,
			MarginFreedIfSold:   status.MarginUsageRate - after.MarginUsageRate,
			NewMarginRateIfSold: after.MarginUsageRate,
		})
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].PnLPercent < out[b].PnLPercent
	})
	return out
}

// ProjectLiquidation estimates the margin usage rate after selling every
// analysed position whose symbol is in symbols. The individual reductions
// are summed, so the figure is an approximation when several are selected.
func ProjectLiquidation(currentRate float64, analyses []PositionAnalysis, symbols []string) float64 {
	selected := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		selected[portfolio.NormalizeSymbol(s)] = true
	}

	var freed float64
	for _, a := range analyses {
		if selected[portfolio.NormalizeSymbol(a.Symbol)] {
			freed += a.MarginFreedIfSold
		}
	}
	return maxf(0, currentRate-freed)
}

func without(positions []portfolio.Position, skip int) []portfolio.Position {
	out := make([]portfolio.Position, 0, len(positions)-1)
	out = append(out, positions[:skip]...)
	return append(out, positions[skip+1:]...)
}
