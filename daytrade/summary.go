// Package daytrade summarizes realized intraday P&L from a trade log.
//
// Trades are netted per calendar date and symbol: a group holding at least
// one buy and one sell is a single round trip, however many fills it has.
// Lots are not matched FIFO or LIFO.
package daytrade

import (
	"time"

	"github.com/rustyeddy/marginpilot/portfolio"
)

// BusinessDayWindow is the look-back used for pattern-day-trader counting.
const BusinessDayWindow = 5

type Summary struct {
	TodayPnl           float64 `json:"todayPnl"`
	WeekPnl            float64 `json:"weekPnl"`
	MonthPnl           float64 `json:"monthPnl"`
	TotalTrades        int     `json:"totalTrades"`
	WinRate            float64 `json:"winRate"`
	AvgWin             float64 `json:"avgWin"`
	AvgLoss            float64 `json:"avgLoss"`
	LargestWin         float64 `json:"largestWin"`
	LargestLoss        float64 `json:"largestLoss"`
	DayTradesLast5Days int     `json:"dayTradesLast5Days"`
}

// RoundTrip is the netted result of one date and symbol group.
type RoundTrip struct {
	Date   string  `json:"date"`
	Symbol string  `json:"symbol"`
	Pnl    float64 `json:"pnl"`
}

type groupKey struct {
	date   string
	symbol string
}

type group struct {
	buyCost     float64
	sellRevenue float64
	buys, sells int
}

// RoundTrips nets the log into round trips in first-seen order. Groups
// with only one side are open and yield nothing.
func RoundTrips(trades []portfolio.Trade) []RoundTrip {
	var order []groupKey
	groups := make(map[groupKey]*group)

	for _, t := range trades {
		k := groupKey{date: t.Date, symbol: t.Symbol}
		g, ok := groups[k]
		if !ok {
			g = &group{}
			groups[k] = g
			order = append(order, k)
		}
		switch t.Side {
		case portfolio.Buy:
			g.buys++
			g.buyCost += t.Quantity*t.Price + t.Fees
		case portfolio.Sell:
			g.sells++
			g.sellRevenue += t.Quantity*t.Price - t.Fees
		}
	}

	var out []RoundTrip
	for _, k := range order {
		g := groups[k]
		if g.buys == 0 || g.sells == 0 {
			continue
		}
		out = append(out, RoundTrip{Date: k.date, Symbol: k.symbol, Pnl: g.sellRevenue - g.buyCost})
	}
	return out
}

// Summarize aggregates round trips relative to now. Trade dates are read
// as midnight in now's location. A date that does not parse still counts
// toward the totals but falls inside no window.
func Summarize(trades []portfolio.Trade, now time.Time) Summary {
	loc := now.Location()
	today := now.Format(portfolio.DateLayout)
	weekAgo := now.AddDate(0, 0, -7)
	monthAgo := now.AddDate(0, -1, 0)
	pdtCutoff := BusinessDaysBefore(now, BusinessDayWindow)

	var (
		s               Summary
		wins, losses    int
		winSum, lossSum float64
	)

	trips := RoundTrips(trades)
	for _, rt := range trips {
		if rt.Date == today {
			s.TodayPnl += rt.Pnl
		}
		if d, err := portfolio.ParseDate(rt.Date, loc); err == nil {
			if !d.Before(weekAgo) {
				s.WeekPnl += rt.Pnl
			}
			if !d.Before(monthAgo) {
				s.MonthPnl += rt.Pnl
			}
			if !d.Before(pdtCutoff) {
				s.DayTradesLast5Days++
			}
		}

		switch {
		case rt.Pnl > 0:
			if wins == 0 || rt.Pnl > s.LargestWin {
				s.LargestWin = rt.Pnl
			}
			wins++
			winSum += rt.Pnl
		case rt.Pnl < 0:
			if losses == 0 || rt.Pnl < s.LargestLoss {
				s.LargestLoss = rt.Pnl
			}
			losses++
			lossSum += rt.Pnl
		}
	}

	s.TotalTrades = len(trips)
	if s.TotalTrades > 0 {
		s.WinRate = float64(wins) / float64(s.TotalTrades) * 100
	}
	if wins > 0 {
		s.AvgWin = winSum / float64(wins)
	}
	if losses > 0 {
		s.AvgLoss = lossSum / float64(losses)
	}
	return s
}

// BusinessDaysBefore steps back from now one calendar day at a time until
// n weekdays have been passed and returns now shifted by that many days.
// Holidays are not considered.
func BusinessDaysBefore(now time.Time, n int) time.Time {
	daysBack, seen := 0, 0
	for seen < n {
		daysBack++
		switch now.AddDate(0, 0, -daysBack).Weekday() {
		case time.Saturday, time.Sunday:
		default:
			seen++
		}
	}
	return now.AddDate(0, 0, -daysBack)
}
