package risk

// Policy holds the alert thresholds used by Evaluate.
type Policy struct {
	// Margin usage alerts (loan / market value)
	WarningUsageRate float64 // 0.50
	DangerUsageRate  float64 // 0.70

	// Concentration
	MaxPositionWeight float64 // 0.30

	// Pattern-day-trader guard
	MaxDayTrades  int     // 3 in 5 business days; the 4th flags the account
	PDTMinEquity  float64 // 25000
	PDTWindowDays int     // 5 business days
}

// DefaultPolicy mirrors the thresholds used by CalculateMarginStatus and the
// FINRA pattern-day-trader rule.
func DefaultPolicy() Policy {
	return Policy{
		WarningUsageRate:  WarningUsageRate,
		DangerUsageRate:   DangerUsageRate,
		MaxPositionWeight: ConcentrationThreshold,
		MaxDayTrades:      3,
		PDTMinEquity:      25000,
		PDTWindowDays:     5,
	}
}
