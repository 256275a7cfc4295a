package session

import (
	"context"
	"time"

	"github.com/rustyeddy/marginpilot/daytrade"
	"github.com/rustyeddy/marginpilot/journal"
	"github.com/rustyeddy/marginpilot/options"
	"github.com/rustyeddy/marginpilot/risk"
)

func (s *Session) Status() risk.MarginStatus {
	b := s.Book()
	return risk.CalculateMarginStatus(b.Positions, b.Account)
}

func (s *Session) Analysis() []risk.PositionAnalysis {
	b := s.Book()
	return risk.AnalyzePositions(b.Positions, b.Account)
}

// ProjectLiquidation is the usage rate after selling every position in
// symbols.
func (s *Session) ProjectLiquidation(symbols []string) float64 {
	b := s.Book()
	status := risk.CalculateMarginStatus(b.Positions, b.Account)
	return risk.ProjectLiquidation(status.MarginUsageRate, risk.AnalyzePositions(b.Positions, b.Account), symbols)
}

// Stress shocks the whole book, or only symbol when it is not empty.
func (s *Session) Stress(dropPercent float64, symbol string) risk.MarginStatus {
	b := s.Book()
	if symbol != "" {
		return risk.SimulateSymbolDrop(b.Positions, b.Account, symbol, dropPercent)
	}
	return risk.SimulateStress(b.Positions, b.Account, dropPercent)
}

func (s *Session) StressLadder(drops []float64) []risk.StressPoint {
	b := s.Book()
	return risk.StressLadder(b.Positions, b.Account, drops)
}

func (s *Session) OptionsSummary() options.Summary {
	return options.Summarize(s.Options())
}

func (s *Session) PnlCurve(params options.PnlParams) []options.PnlPoint {
	return options.SimulatePnl(s.Options(), params)
}

func (s *Session) DayTrades() daytrade.Summary {
	return daytrade.Summarize(s.Trades(), s.Now())
}

// Alerts evaluates the session policy against the live margin status and
// the recent day-trade count, all taken from one copy of the book.
func (s *Session) Alerts() risk.Decision {
	b := s.Book()
	status := risk.CalculateMarginStatus(b.Positions, b.Account)
	dayTrades := daytrade.Summarize(b.Trades, s.Now()).DayTradesLast5Days
	return risk.Evaluate(s.policy, status, b.Positions, dayTrades)
}

// History lists margin snapshots from the last days days.
func (s *Session) History(ctx context.Context, days int) ([]journal.Snapshot, error) {
	if days <= 0 {
		days = 30
	}
	return s.store.SnapshotsSince(ctx, s.Now().Add(-time.Duration(days)*24*time.Hour))
}
