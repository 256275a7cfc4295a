package options

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/marginpilot/portfolio"
)

// LabelCurrent marks the sample closest to the current underlying price.
const LabelCurrent = "current"

type PnlParams struct {
	RangePercent float64 // sweep ± this percentage around the anchor price
	Steps        int     // sample count; odd puts a sample on the anchor
}

func DefaultPnlParams() PnlParams {
	return PnlParams{RangePercent: 30, Steps: 61}
}

type PnlPoint struct {
	UnderlyingPrice float64 `json:"underlyingPrice"`
	Pnl             float64 `json:"pnl"`
	Label           string  `json:"label,omitempty"`
}

// PayoffAtExpiration is intrinsic value minus premium, scaled to contracts.
func PayoffAtExpiration(p portfolio.OptionPosition, underlyingPrice float64) float64 {
	var intrinsic float64
	if p.OptionType == portfolio.Put {
		intrinsic = math.Max(0, p.Strike-underlyingPrice)
	} else {
		intrinsic = math.Max(0, underlyingPrice-p.Strike)
	}
	return (intrinsic - p.Premium) * p.Quantity * portfolio.ContractMultiplier
}

// SimulatePnl sweeps the underlying price around the first position's
// underlying and sums every position's payoff at expiration. The book is
// assumed to hold a single underlying; with mixed underlyings the first
// position still anchors the sweep.
func SimulatePnl(positions []portfolio.OptionPosition, params PnlParams) []PnlPoint {
	if len(positions) == 0 {
		return nil
	}
	if params.Steps <= 0 {
		params.Steps = DefaultPnlParams().Steps
	}

	center := positions[0].UnderlyingPrice
	minPrice := center * (1 - params.RangePercent/100)
	maxPrice := center * (1 + params.RangePercent/100)

	var step float64
	if params.Steps > 1 {
		step = (maxPrice - minPrice) / float64(params.Steps-1)
	} else {
		minPrice = center
	}

	points := make([]PnlPoint, 0, params.Steps)
	for i := 0; i < params.Steps; i++ {
		price := minPrice + step*float64(i)

		var total float64
		for _, p := range positions {
			total += PayoffAtExpiration(p, price)
		}

		pt := PnlPoint{
			UnderlyingPrice: roundCents(price),
			Pnl:             roundCents(total),
		}
		if diff := math.Abs(price - center); diff < step/2 || diff == 0 {
			pt.Label = LabelCurrent
		}
		points = append(points, pt)
	}
	return points
}

func roundCents(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}
