package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionValues(t *testing.T) {
	t.Parallel()

	p := Position{Symbol: "AAPL", Quantity: 10, AvgCost: 150, CurrentPrice: 180, MarginRate: 0.3}
	assert.InDelta(t, 1800.0, p.MarketValue(), 1e-9)
	assert.InDelta(t, 1500.0, p.CostBasis(), 1e-9)
}

func TestPositionValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pos     Position
		wantErr bool
	}{
		{"valid", Position{Symbol: "AAPL", Quantity: 1, AvgCost: 1, CurrentPrice: 1, MarginRate: 0.3}, false},
		{"missing symbol", Position{Quantity: 1, MarginRate: 0.3}, true},
		{"margin rate above one", Position{Symbol: "X", MarginRate: 1.5}, true},
		{"negative price", Position{Symbol: "X", CurrentPrice: -1}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.pos.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOptionPositionValidate(t *testing.T) {
	t.Parallel()

	ok := OptionPosition{
		Symbol: "AAPL", OptionType: Call, Strike: 200, Expiration: "2026-03-21",
		Premium: 5.5, Quantity: 2, CurrentPrice: 6.2, UnderlyingPrice: 203.5,
	}
	require.NoError(t, ok.Validate())

	bad := ok
	bad.OptionType = "straddle"
	assert.Error(t, bad.Validate())

	bad = ok
	bad.Expiration = "03/21/2026"
	assert.Error(t, bad.Validate())

	bad = ok
	bad.Quantity = 0
	assert.Error(t, bad.Validate())
}

func TestTradeValidate(t *testing.T) {
	t.Parallel()

	tr := Trade{Date: "2024-01-02", Symbol: "AAPL", Side: Buy, Quantity: 10, Price: 100, Fees: 1}
	assert.NoError(t, tr.Validate())

	tr.Side = "short"
	err := tr.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "side")
}

func TestBookCloneIsIndependent(t *testing.T) {
	t.Parallel()

	b := Book{Positions: []Position{{Symbol: "AAPL", CurrentPrice: 1}}}
	c := b.Clone()
	c.Positions[0].CurrentPrice = 99

	assert.Equal(t, 1.0, b.Positions[0].CurrentPrice)
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	d, err := ParseDate(" 2024-01-02 ", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("not-a-date", nil)
	assert.Error(t, err)
}

func TestNormalizeSymbol(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "BRK.B", NormalizeSymbol("  brk.b "))
}
