// Package risk computes margin health, liquidation impact and stress
// scenarios for an equity margin account. Every function is pure: inputs are
// never modified and results are freshly allocated.
package risk

import "github.com/rustyeddy/marginpilot/portfolio"

const (
	// ConcentrationThreshold flags any position above this share of market value.
	ConcentrationThreshold = 0.30

	// WarningUsageRate and DangerUsageRate bound the loan/market-value ratio.
	WarningUsageRate = 0.50
	DangerUsageRate  = 0.70

	// RegTMultiplier is the overnight buying-power multiple of excess equity.
	RegTMultiplier = 2.0
)

type HealthLevel string

const (
	Safe       HealthLevel = "safe"
	Warning    HealthLevel = "warning"
	Danger     HealthLevel = "danger"
	MarginCall HealthLevel = "margin-call"
)

// Label is the upper-case display name of the level.
func (h HealthLevel) Label() string {
	switch h {
	case Safe:
		return "SAFE"
	case Warning:
		return "WARNING"
	case Danger:
		return "DANGER"
	case MarginCall:
		return "MARGIN CALL"
	default:
		return string(h)
	}
}

type MarginStatus struct {
	TotalMarketValue      float64     `json:"totalMarketValue"`
	TotalEquity           float64     `json:"totalEquity"`
	MarginUsageRate       float64     `json:"marginUsageRate"`
	MaintenanceRequired   float64     `json:"maintenanceRequired"`
	ExcessEquity          float64     `json:"excessEquity"`
	DistanceToMarginCall  float64     `json:"distanceToMarginCall"` // always equal to ExcessEquity
	BuyingPower           float64     `json:"buyingPower"`
	HealthLevel           HealthLevel `json:"healthLevel"`
	ConcentratedPositions []string    `json:"concentratedPositions"`
}

// CalculateMarginStatus derives the account-wide margin snapshot.
func CalculateMarginStatus(positions []portfolio.Position, account portfolio.Account) MarginStatus {
	var totalMarketValue, maintenance float64
	for _, p := range positions {
		mv := p.MarketValue()
		totalMarketValue += mv
		maintenance += mv * p.MarginRate
	}

	totalEquity := totalMarketValue - account.MarginLoan + account.CashBalance
	usage := ratio(account.MarginLoan, totalMarketValue)
	excess := totalEquity - maintenance


	return MarginStatus{
		TotalMarketValue:      totalMarketValue,
		TotalEquity:           totalEquity,
		MarginUsageRate:       usage,
		MaintenanceRequired:   maintenance,
		ExcessEquity:          excess,
		DistanceToMarginCall:  excess,
		BuyingPower:           maxf(0, excess*RegTMultiplier),
		HealthLevel:           HealthFor(usage, excess),
		ConcentratedPositions: Concentrated(positions, ConcentrationThreshold),
	}
}

// HealthFor classifies an account; the first matching rule wins.
func HealthFor(usageRate, excessEquity float64) HealthLevel {
	switch {
	case excessEquity <= 0:
		return MarginCall
	case usageRate > DangerUsageRate:
		return Danger
	case usageRate > WarningUsageRate:
		return Warning
	default:
		return Safe
	}
}

// Concentrated lists the symbols of positions worth strictly more than
// weight of total market value.
func Concentrated(positions []portfolio.Position, weight float64) []string {
	var total float64
	for _, p := range positions {
		total += p.MarketValue()
	}

	out := []string{}
	if total <= 0 {
		return out
	}
	for _, p := range positions {
		if p.MarketValue()/total > weight {
			out = append(out, p.Symbol)
		}
	}
	return out
}
