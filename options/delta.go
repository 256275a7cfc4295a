// Package options estimates delta, leverage and expiration payoff for a book
// of equity options. Delta comes from a moneyness/time heuristic rather than
// a pricing model: no implied volatility is needed.
package options

import (
	"math"
	"time"

	"github.com/rustyeddy/marginpilot/portfolio"
)

const (
	minDelta = 0.01
	maxDelta = 0.99

	// options stop trading at the 4pm close on expiration day
	expirationHour = 16
)

// DaysToExpiration counts whole days, rounded up, from now until 16:00 on the
// expiration date in now's location. Past or unparseable dates yield 0.
func DaysToExpiration(expiration string, now time.Time) int {
	d, err := portfolio.ParseDate(expiration, now.Location())
	if err != nil {
		return 0
	}
	exp := d.Add(expirationHour * time.Hour)
	days := math.Ceil(exp.Sub(now).Hours() / 24)
	if days < 0 {
		return 0
	}
	return int(days)
}

// EstimateCallDelta returns a call delta in [0.01, 0.99].
func EstimateCallDelta(strike, underlyingPrice float64, dte int) float64 {
	m := moneyness(underlyingPrice, strike)
	if dte < 0 {
		dte = 0
	}
	timeDecay := math.Max(0.01, math.Sqrt(float64(dte)/365))

	var delta float64
	switch {
	case m >= 1.10: // deep in the money
		delta = 0.7 + 0.25*math.Min((m-1.1)/0.2, 1)
	case m >= 0.95: // near the money
		delta = 0.3 + 0.4*((m-0.95)/0.15)
	default: // out of the money
		delta = math.Max(0.02, 0.3*math.Pow(m/0.95, 3))
	}

	// push toward 0 or 1 as expiration nears
	if m > 1 {
		delta += (1 - timeDecay) * (1 - delta) * 0.3
	} else {
		delta -= (1 - timeDecay) * delta * 0.3
	}

	return math.Max(minDelta, math.Min(maxDelta, delta))
}

// EstimatePutDelta mirrors the call estimate through put-call parity:
// put = -(1 - call).
func EstimatePutDelta(strike, underlyingPrice float64, dte int) float64 {
	return -(1 - EstimateCallDelta(strike, underlyingPrice, dte))
}

// EstimateDelta dispatches on option type.
func EstimateDelta(t portfolio.OptionType, strike, underlyingPrice float64, dte int) float64 {
	if t == portfolio.Put {
		return EstimatePutDelta(strike, underlyingPrice, dte)
	}
	return EstimateCallDelta(strike, underlyingPrice, dte)
}

func moneyness(underlyingPrice, strike float64) float64 {
	if strike <= 0 {
		if underlyingPrice > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return underlyingPrice / strike
}
