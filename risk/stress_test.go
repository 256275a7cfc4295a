package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/marginpilot/portfolio"
)

func samplePortfolio() ([]portfolio.Position, portfolio.Account) {
	positions := []portfolio.Position{
		pos("AAPL", 100, 100, 0.3),
		pos("TSLA", 20, 250, 0.5),
	}
	return positions, portfolio.Account{MarginLoan: 7000}
}

func TestSimulateStress_ZeroDropIsIdentity(t *testing.T) {
	t.Parallel()

	positions, acct := samplePortfolio()
	assert.Equal(t, CalculateMarginStatus(positions, acct), SimulateStress(positions, acct, 0))
}

func TestSimulateStress(t *testing.T) {
	t.Parallel()

	positions, acct := samplePortfolio()
	got := SimulateStress(positions, acct, 20)

	// 15000 * 0.8
	assert.InDelta(t, 12000.0, got.TotalMarketValue, 1e-9)
	assert.InDelta(t, 7000.0/12000.0, got.MarginUsageRate, 1e-12)
	assert.Equal(t, Warning, got.HealthLevel)

	// inputs untouched
	assert.Equal(t, 100.0, positions[0].CurrentPrice)
	assert.Equal(t, 250.0, positions[1].CurrentPrice)
}

func TestSimulateStress_MarginCall(t *testing.T) {
	t.Parallel()

	positions, acct := samplePortfolio()
	got := SimulateStress(positions, acct, 50)

	// mv 7500, equity 500, maintenance 1500+1250
	assert.InDelta(t, 7500.0, got.TotalMarketValue, 1e-9)
	assert.InDelta(t, -2250.0, got.ExcessEquity, 1e-9)
	assert.Equal(t, MarginCall, got.HealthLevel)
	assert.Equal(t, 0.0, got.BuyingPower)
}

func TestSimulateSymbolDrop(t *testing.T) {
	t.Parallel()

	positions, acct := samplePortfolio()
	got := SimulateSymbolDrop(positions, acct, "TSLA", 50)

	assert.InDelta(t, 12500.0, got.TotalMarketValue, 1e-9)
	assert.Equal(t, 250.0, positions[1].CurrentPrice)

	unknown := SimulateSymbolDrop(positions, acct, "NOPE", 50)
	assert.Equal(t, CalculateMarginStatus(positions, acct), unknown)
}

func TestStressLadder(t *testing.T) {
	t.Parallel()

	positions, acct := samplePortfolio()
	ladder := StressLadder(positions, acct, []float64{0, 10, 25, 50})
	require.Len(t, ladder, 4)

	for i := 1; i < len(ladder); i++ {
		assert.Less(t, ladder[i].Status.TotalMarketValue, ladder[i-1].Status.TotalMarketValue)
	}
	assert.Equal(t, 25.0, ladder[2].DropPercent)
	assert.Equal(t, MarginCall, ladder[3].Status.HealthLevel)
}
