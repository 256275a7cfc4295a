package options

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/marginpilot/portfolio"
)

func longCall() portfolio.OptionPosition {
	return portfolio.OptionPosition{
		Symbol: "AAPL", OptionType: portfolio.Call, Strike: 200, Premium: 5,
		Quantity: 2, CurrentPrice: 6, UnderlyingPrice: 205, Delta: 0.6,
	}
}

func shortPut() portfolio.OptionPosition {
	return portfolio.OptionPosition{
		Symbol: "AAPL", OptionType: portfolio.Put, Strike: 190, Premium: 3,
		Quantity: -1, CurrentPrice: 2, UnderlyingPrice: 205, Delta: -0.25,
	}
}

func TestCalculateLeverage_LongCall(t *testing.T) {
	t.Parallel()

	got := CalculateLeverage(longCall())
	assert.InDelta(t, 0.6*205/5, got.LeverageRatio, 1e-9)
	assert.InDelta(t, 2*100*205*0.6, got.NotionalExposure, 1e-9)
	assert.InDelta(t, 205.0, got.BreakEvenPrice, 1e-9)
	assert.InDelta(t, 1000.0, got.MaxLoss, 1e-9)
	assert.False(t, got.Unbounded())
	assert.InDelta(t, 120.0, got.DeltaExposure, 1e-9)
}

func TestCalculateLeverage_ShortPut(t *testing.T) {
	t.Parallel()

	got := CalculateLeverage(shortPut())
	assert.InDelta(t, 0.25*205/3, got.LeverageRatio, 1e-9)
	assert.InDelta(t, 100*205*0.25, got.NotionalExposure, 1e-9)
	assert.InDelta(t, 187.0, got.BreakEvenPrice, 1e-9)
	assert.True(t, math.IsInf(got.MaxLoss, 1))
	assert.True(t, got.Unbounded())
	// short put: -1 × 100 × -0.25
	assert.InDelta(t, 25.0, got.DeltaExposure, 1e-9)
}

func TestCalculateLeverage_ZeroPremium(t *testing.T) {
	t.Parallel()

	p := longCall()
	p.Premium = 0
	got := CalculateLeverage(p)
	assert.Equal(t, 0.0, got.LeverageRatio)
	assert.Equal(t, 0.0, got.MaxLoss)
}

func TestLeverageJSON(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(CalculateLeverage(shortPut()))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Nil(t, m["maxLoss"])
	assert.Equal(t, true, m["maxLossUnbounded"])

	raw, err = json.Marshal(CalculateLeverage(longCall()))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, 1000.0, m["maxLoss"])
	assert.Equal(t, false, m["maxLossUnbounded"])
}

func TestLeverageBand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ratio float64
		want  Band
	}{
		{0, BandLow},
		{3, BandLow},
		{3.1, BandModerate},
		{8, BandModerate},
		{15, BandHigh},
		{15.01, BandExtreme},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LeverageBand(tt.ratio), "ratio %v", tt.ratio)
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	got := Summarize([]portfolio.OptionPosition{longCall(), shortPut()})

	assert.InDelta(t, 2*100*205*0.6+100*205*0.25, got.TotalNotional, 1e-9)
	// delta nets: +120 long call, +25 short put
	assert.InDelta(t, 145.0, got.NetDelta, 1e-9)
	// premium and value do not net: both legs add magnitude
	assert.InDelta(t, 2*100*5+1*100*3, got.TotalPremiumPaid, 1e-9)
	assert.InDelta(t, 2*100*6+1*100*2, got.TotalCurrentValue, 1e-9)
	assert.InDelta(t, 1400.0-1300.0, got.TotalPnl, 1e-9)
}

func TestSummarize_NetsOpposingDelta(t *testing.T) {
	t.Parallel()

	long := longCall()
	short := longCall()
	short.Quantity = -2

	got := Summarize([]portfolio.OptionPosition{long, short})
	assert.InDelta(t, 0.0, got.NetDelta, 1e-9)
	assert.InDelta(t, 2000.0, got.TotalPremiumPaid, 1e-9)
	assert.InDelta(t, 2*2*100*205*0.6, got.TotalNotional, 1e-9)
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Summary{}, Summarize(nil))
}
