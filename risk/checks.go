package risk

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/marginpilot/portfolio"
)

type Violation struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

type Decision struct {
	Allowed    bool        `json:"allowed"`
	Violations []Violation `json:"violations"`
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Has reports whether a violation with the given code was raised.
func (d Decision) Has(code string) bool {
	for _, v := range d.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

// Evaluate turns a margin snapshot and the recent day-trade count into the
// alerts a trader should see before placing another order. Concentration
// is checked against the policy weight, which may differ from the fixed
// threshold behind status.ConcentratedPositions.
func Evaluate(p Policy, status MarginStatus, positions []portfolio.Position, dayTradesInWindow int) Decision {
	d := Decision{Allowed: true}

	// Margin health
	switch {
	case status.ExcessEquity <= 0:
		d.add("MARGIN_CALL",
			fmt.Sprintf("equity %.2f is below maintenance requirement %.2f",
				status.TotalEquity, status.MaintenanceRequired))
	case status.MarginUsageRate > p.DangerUsageRate:
		d.add("MARGIN_DANGER",
			fmt.Sprintf("margin usage %.2f%% exceeds %.2f%%",
				100*status.MarginUsageRate, 100*p.DangerUsageRate))
	case status.MarginUsageRate > p.WarningUsageRate:
		d.add("MARGIN_WARNING",
			fmt.Sprintf("margin usage %.2f%% exceeds %.2f%%",
				100*status.MarginUsageRate, 100*p.WarningUsageRate))
	}

	// Concentration
	if heavy := Concentrated(positions, p.MaxPositionWeight); len(heavy) > 0 {
		d.add("CONCENTRATION",
			fmt.Sprintf("%s exceed %.0f%% of market value",
				strings.Join(heavy, ", "), 100*p.MaxPositionWeight))
	}

	// Pattern day trader
	if dayTradesInWindow >= p.MaxDayTrades {
		d.add("PDT_LIMIT",
			fmt.Sprintf("%d day trades in %d business days; the next one flags the account",
				dayTradesInWindow, p.PDTWindowDays))
		if status.TotalEquity < p.PDTMinEquity {
			d.add("PDT_EQUITY",
				fmt.Sprintf("equity %.2f below PDT minimum %.2f", status.TotalEquity, p.PDTMinEquity))
		}
	}

	return d
}
