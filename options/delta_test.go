package options

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/marginpilot/portfolio"
)

func TestDaysToExpiration(t *testing.T) {
	t.Parallel()

	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		ny = time.UTC
	}

	tests := []struct {
		name string
		exp  string
		now  time.Time
		want int
	}{
		{"same day before close", "2024-03-15", time.Date(2024, 3, 15, 10, 0, 0, 0, ny), 1},
		{"same day after close", "2024-03-15", time.Date(2024, 3, 15, 17, 0, 0, 0, ny), 0},
		{"one week", "2024-03-22", time.Date(2024, 3, 15, 16, 0, 0, 0, ny), 7},
		{"partial day rounds up", "2024-03-22", time.Date(2024, 3, 15, 15, 0, 0, 0, ny), 8},
		{"expired", "2024-01-19", time.Date(2024, 3, 15, 10, 0, 0, 0, ny), 0},
		{"garbage", "next friday", time.Date(2024, 3, 15, 10, 0, 0, 0, ny), 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DaysToExpiration(tt.exp, tt.now))
		})
	}
}

func TestEstimateCallDelta_Bands(t *testing.T) {
	t.Parallel()

	// one year out: timeDecay = 1 so there is no expiry nudge
	assert.InDelta(t, 0.7, EstimateCallDelta(100, 110, 365), 1e-9)
	assert.InDelta(t, 0.95, EstimateCallDelta(100, 140, 365), 1e-9)
	assert.InDelta(t, 0.3, EstimateCallDelta(100, 95, 365), 1e-9)
	assert.InDelta(t, 0.5, EstimateCallDelta(100, 102.5, 365), 1e-9)
	assert.InDelta(t, 0.3*(0.9*0.9*0.9)/(0.95*0.95*0.95), EstimateCallDelta(100, 90, 365), 1e-9)
	assert.InDelta(t, 0.02, EstimateCallDelta(100, 10, 365), 1e-9)
}

func TestEstimateCallDelta_ExpiryNudge(t *testing.T) {
	t.Parallel()

	// at expiry timeDecay floors at 0.01
	itm := EstimateCallDelta(100, 110, 0)
	assert.InDelta(t, 0.7+0.99*0.3*0.3, itm, 1e-9)

	otm := EstimateCallDelta(100, 95, 0)
	assert.InDelta(t, 0.3-0.99*0.3*0.3, otm, 1e-9)

	// negative day counts behave like zero
	assert.Equal(t, otm, EstimateCallDelta(100, 95, -5))
}

func TestEstimateCallDelta_Clamped(t *testing.T) {
	t.Parallel()

	for _, u := range []float64{0, 1, 50, 90, 99, 100, 101, 120, 500} {
		for _, dte := range []int{0, 1, 30, 365, 1000} {
			d := EstimateCallDelta(100, u, dte)
			assert.GreaterOrEqual(t, d, 0.01)
			assert.LessOrEqual(t, d, 0.99)
		}
	}

	// a zero strike reads as deep in the money, or worthless with no underlying
	assert.InDelta(t, 0.95+0.99*0.05*0.3, EstimateCallDelta(0, 100, 0), 1e-9)
	assert.InDelta(t, 0.02-0.99*0.02*0.3, EstimateCallDelta(0, 0, 0), 1e-9)
}

func TestPutCallParity(t *testing.T) {
	t.Parallel()

	for _, u := range []float64{80, 95, 100, 104, 111, 150} {
		for _, dte := range []int{0, 7, 45, 400} {
			call := EstimateCallDelta(100, u, dte)
			put := EstimatePutDelta(100, u, dte)
			assert.Equal(t, -(1 - call), put)
			assert.Equal(t, put, EstimateDelta(portfolio.Put, 100, u, dte))
			assert.Equal(t, call, EstimateDelta(portfolio.Call, 100, u, dte))
		}
	}
}

func TestNewPositionFreezesDelta(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	in := portfolio.OptionPosition{
		Symbol: " aapl ", OptionType: portfolio.Call, Strike: 200, Expiration: "2024-03-15",
		Premium: 5, Quantity: 1, UnderlyingPrice: 210,
	}

	p := NewPosition(in, now)
	assert.Equal(t, "AAPL", p.Symbol)
	assert.Equal(t, 5.0, p.CurrentPrice)
	assert.Equal(t, EstimateCallDelta(200, 210, DaysToExpiration("2024-03-15", now)), p.Delta)

	// a later price move does not change the stored delta until refrozen
	p.UnderlyingPrice = 250
	assert.Equal(t, EstimateCallDelta(200, 210, 15), p.Delta)
	assert.Greater(t, Refreeze(p, now).Delta, p.Delta)
}
