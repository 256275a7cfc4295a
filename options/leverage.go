package options

import (
	"encoding/json"
	"math"

	"github.com/rustyeddy/marginpilot/portfolio"
)

// Leverage describes one option position's exposure.
type Leverage struct {
	LeverageRatio    float64 // |delta| × underlying / premium
	NotionalExposure float64 // delta-adjusted share value, always positive
	BreakEvenPrice   float64
	MaxLoss          float64 // +Inf for written (short) positions
	DeltaExposure    float64 // signed share-equivalent delta
}

// Unbounded reports whether the maximum loss has no limit.
func (l Leverage) Unbounded() bool {
	return math.IsInf(l.MaxLoss, 1)
}

// MarshalJSON encodes an unbounded max loss as null.
func (l Leverage) MarshalJSON() ([]byte, error) {
	var maxLoss *float64
	if !l.Unbounded() {
		v := l.MaxLoss
		maxLoss = &v
	}
	return json.Marshal(struct {
		LeverageRatio    float64  `json:"leverageRatio"`
		NotionalExposure float64  `json:"notionalExposure"`
		BreakEvenPrice   float64  `json:"breakEvenPrice"`
		MaxLoss          *float64 `json:"maxLoss"`
		MaxLossUnbounded bool     `json:"maxLossUnbounded"`
		DeltaExposure    float64  `json:"deltaExposure"`
	}{
		LeverageRatio:    l.LeverageRatio,
		NotionalExposure: l.NotionalExposure,
		BreakEvenPrice:   l.BreakEvenPrice,
		MaxLoss:          maxLoss,
		MaxLossUnbounded: l.Unbounded(),
		DeltaExposure:    l.DeltaExposure,
	})
}

// CalculateLeverage derives exposure figures from the position's stored delta.
func CalculateLeverage(p portfolio.OptionPosition) Leverage {
	absDelta := math.Abs(p.Delta)

	var lev float64
	if p.Premium > 0 {
		lev = absDelta * p.UnderlyingPrice / p.Premium
	}

	breakEven := p.Strike + p.Premium
	if p.OptionType == portfolio.Put {
		breakEven = p.Strike - p.Premium
	}

	maxLoss := math.Inf(1)
	if p.IsLong() {
		maxLoss = math.Abs(p.Quantity) * portfolio.ContractMultiplier * p.Premium
	}

	return Leverage{
		LeverageRatio:    lev,
		NotionalExposure: math.Abs(p.Quantity * portfolio.ContractMultiplier * p.UnderlyingPrice * absDelta),
		BreakEvenPrice:   breakEven,
		MaxLoss:          maxLoss,
		DeltaExposure:    p.Quantity * portfolio.ContractMultiplier * p.Delta,
	}
}

type Band string

const (
	BandLow      Band = "low"
	BandModerate Band = "moderate"
	BandHigh     Band = "high"
	BandExtreme  Band = "extreme"
)

// LeverageBand buckets a leverage ratio for display.
func LeverageBand(ratio float64) Band {
	switch {
	case ratio <= 3:
		return BandLow
	case ratio <= 8:
		return BandModerate
	case ratio <= 15:
		return BandHigh
	default:
		return BandExtreme
	}
}
