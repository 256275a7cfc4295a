package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/marginpilot/journal"
	"github.com/rustyeddy/marginpilot/options"
	"github.com/rustyeddy/marginpilot/portfolio"
	"github.com/rustyeddy/marginpilot/quotes"
	"github.com/rustyeddy/marginpilot/risk"
)

var fixedNow = time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)

func newTestSession(t *testing.T) (*Session, *journal.SQLiteStore) {
	t.Helper()

	store, err := journal.NewSQLite(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	s, err := Open(context.Background(), store, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return s, store
}

func TestPositionsLifecycle(t *testing.T) {
	t.Parallel()

	s, store := newTestSession(t)
	ctx := context.Background()

	p, err := s.AddPosition(ctx, portfolio.Position{Symbol: " aapl", Quantity: 100, AvgCost: 150, CurrentPrice: 180, MarginRate: 0.3})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "AAPL", p.Symbol)

	_, err = s.AddPosition(ctx, portfolio.Position{Symbol: "", Quantity: 1})
	assert.Error(t, err)

	updated, err := s.UpdatePosition(ctx, p.ID, func(p *portfolio.Position) {
		p.Quantity = 50
		p.ID = "hijack"
	})
	require.NoError(t, err)
	assert.Equal(t, p.ID, updated.ID)
	assert.Equal(t, 50.0, updated.Quantity)

	_, err = s.UpdatePosition(ctx, "nope", func(*portfolio.Position) {})
	assert.ErrorIs(t, err, ErrNotFound)

	// every mutation is persisted
	b, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, b.Positions, 1)
	assert.Equal(t, 50.0, b.Positions[0].Quantity)

	require.NoError(t, s.RemovePosition(ctx, p.ID))
	assert.ErrorIs(t, s.RemovePosition(ctx, p.ID), ErrNotFound)
	assert.Empty(t, s.Positions())
}

func TestSnapshotsAreCopies(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)
	_, err := s.AddPosition(context.Background(), portfolio.Position{Symbol: "MSFT", Quantity: 1, CurrentPrice: 400, MarginRate: 0.3})
	require.NoError(t, err)

	got := s.Positions()
	got[0].Quantity = 999
	assert.Equal(t, 1.0, s.Positions()[0].Quantity)
}

func TestImportAndUpdatePrices(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)
	ctx := context.Background()

	n, err := s.ImportPositions(ctx, []portfolio.Position{
		{Symbol: "AAPL", Quantity: 10, AvgCost: 100, CurrentPrice: 100, MarginRate: 0.3},
		{Symbol: "TSLA", Quantity: 5, AvgCost: 200, CurrentPrice: 200, MarginRate: 0.5},
		{Symbol: "BAD", Quantity: 1, CurrentPrice: 1, MarginRate: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	changed, err := s.UpdatePrices(ctx, map[string]float64{"AAPL": 110, "NVDA": 900})
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	pos := s.Positions()
	assert.Equal(t, 110.0, pos[0].CurrentPrice)
	assert.Equal(t, 200.0, pos[1].CurrentPrice)
}

func TestOptionsFreezeDelta(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)
	ctx := context.Background()

	o, err := s.AddOption(ctx, portfolio.OptionPosition{
		Symbol: "aapl", OptionType: portfolio.Call, Strike: 200, Expiration: "2024-01-19",
		Premium: 5, Quantity: 1, UnderlyingPrice: 210,
	})
	require.NoError(t, err)
	want := options.EstimateCallDelta(200, 210, options.DaysToExpiration("2024-01-19", fixedNow))
	assert.Equal(t, want, o.Delta)
	assert.Equal(t, 5.0, o.CurrentPrice)

	// a price refresh moves the underlying but not the stored delta
	_, err = s.UpdatePrices(ctx, map[string]float64{"AAPL": 230})
	require.NoError(t, err)
	assert.Equal(t, 230.0, s.Options()[0].UnderlyingPrice)
	assert.Equal(t, want, s.Options()[0].Delta)

	refrozen, err := s.RefreezeDeltas(ctx)
	require.NoError(t, err)
	assert.Greater(t, refrozen[0].Delta, want)

	n, err := s.ImportOptions(ctx, []portfolio.OptionPosition{
		{Symbol: "SPY", OptionType: portfolio.Put, Strike: 450, Expiration: "2024-02-16", Premium: 6, Quantity: -2},
		{Symbol: "SPY", OptionType: "straddle", Strike: 450, Expiration: "2024-02-16", Premium: 6, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 450.0, s.Options()[1].UnderlyingPrice)

	require.NoError(t, s.RemoveOption(ctx, o.ID))
	assert.ErrorIs(t, s.RemoveOption(ctx, o.ID), ErrNotFound)
	require.NoError(t, s.ClearOptions(ctx))
	assert.Empty(t, s.Options())
}

func TestTradesNewestFirst(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)
	ctx := context.Background()

	buy, err := s.AddTrade(ctx, portfolio.Trade{Symbol: "aapl", Side: portfolio.Buy, Quantity: 10, Price: 100, Fees: 1})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", buy.Date)

	sell, err := s.AddTrade(ctx, portfolio.Trade{Date: "2024-01-02", Symbol: "AAPL", Side: portfolio.Sell, Quantity: 10, Price: 105, Fees: 1})
	require.NoError(t, err)

	trades := s.Trades()
	require.Len(t, trades, 2)
	assert.Equal(t, sell.ID, trades[0].ID)

	sum := s.DayTrades()
	assert.InDelta(t, 48.0, sum.TodayPnl, 1e-9)
	assert.Equal(t, 1, sum.DayTradesLast5Days)

	_, err = s.AddTrade(ctx, portfolio.Trade{Symbol: "AAPL", Side: "short", Quantity: 1, Price: 1})
	assert.Error(t, err)

	require.NoError(t, s.RemoveTrade(ctx, buy.ID))
	assert.ErrorIs(t, s.RemoveTrade(ctx, buy.ID), ErrNotFound)
}

func TestReadViews(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, s.SetAccount(ctx, portfolio.Account{CashBalance: 0, MarginLoan: 5000}))
	_, err := s.AddPosition(ctx, portfolio.Position{Symbol: "AAPL", Quantity: 100, AvgCost: 90, CurrentPrice: 100, MarginRate: 0.3})
	require.NoError(t, err)

	st := s.Status()
	assert.Equal(t, 10000.0, st.TotalMarketValue)
	assert.Equal(t, 0.5, st.MarginUsageRate)
	assert.Equal(t, risk.Safe, st.HealthLevel)

	assert.Equal(t, st, s.Stress(0, ""))
	assert.Equal(t, risk.Warning, s.Stress(10, "AAPL").HealthLevel)
	assert.Len(t, s.StressLadder([]float64{0, 10, 20}), 3)
	assert.Len(t, s.Analysis(), 1)
	assert.Equal(t, 0.0, s.ProjectLiquidation([]string{"AAPL"}))

	// single position is 100% of the book
	assert.True(t, s.Alerts().Has("CONCENTRATION"))
	assert.Empty(t, s.PnlCurve(options.DefaultPnlParams()))
	assert.Equal(t, options.Summary{}, s.OptionsSummary())

	assert.Error(t, s.SetAccount(ctx, portfolio.Account{MarginLoan: -1}))
}

func TestViewsDeriveFromOneBook(t *testing.T) {
	t.Parallel()

	store, err := journal.NewSQLite(filepath.Join(t.TempDir(), "views.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	policy := risk.DefaultPolicy()
	policy.MaxPositionWeight = 0.40
	ctx := context.Background()
	s, err := Open(ctx, store, WithClock(func() time.Time { return fixedNow }), WithPolicy(policy))
	require.NoError(t, err)

	require.NoError(t, s.SetAccount(ctx, portfolio.Account{MarginLoan: 8000}))
	for _, p := range []portfolio.Position{
		{Symbol: "AAA", Quantity: 35, CurrentPrice: 100, MarginRate: 0.3},
		{Symbol: "BBB", Quantity: 35, CurrentPrice: 100, MarginRate: 0.3},
		{Symbol: "CCC", Quantity: 30, CurrentPrice: 100, MarginRate: 0.3},
	} {
		_, err := s.AddPosition(ctx, p)
		require.NoError(t, err)
	}

	b := s.Book()
	want := risk.ProjectLiquidation(
		risk.CalculateMarginStatus(b.Positions, b.Account).MarginUsageRate,
		risk.AnalyzePositions(b.Positions, b.Account),
		[]string{"AAA", "CCC"})
	assert.Equal(t, want, s.ProjectLiquidation([]string{"AAA", "CCC"}))
	assert.Less(t, want, s.Status().MarginUsageRate)

	// 35% is over the fixed status threshold but under the session policy
	assert.Equal(t, []string{"AAA", "BBB"}, s.Status().ConcentratedPositions)
	assert.False(t, s.Alerts().Has("CONCENTRATION"))
}

type staticQuotes map[string]float64

func (staticQuotes) Name() string { return "static" }

func (q staticQuotes) Quotes(_ context.Context, symbols []string) (map[string]float64, error) {
	out := map[string]float64{}
	for _, s := range symbols {
		if p, ok := q[s]; ok {
			out[s] = p
		}
	}
	if len(out) == 0 {
		return out, quotes.ErrNoQuotes
	}
	return out, nil
}

func TestRefreshPrices(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)
	ctx := context.Background()

	_, err := s.ImportPositions(ctx, []portfolio.Position{
		{Symbol: "AAPL", Quantity: 10, CurrentPrice: 100, MarginRate: 0.3},
		{Symbol: "MSFT", Quantity: 10, CurrentPrice: 400, MarginRate: 0.3},
	})
	require.NoError(t, err)

	got, err := s.RefreshPrices(ctx, staticQuotes{"AAPL": 120})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"AAPL": 120}, got)

	pos := s.Positions()
	assert.Equal(t, 120.0, pos[0].CurrentPrice)
	// stale price stays in use
	assert.Equal(t, 400.0, pos[1].CurrentPrice)

	hist, err := s.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.InDelta(t, 5200.0, hist[0].TotalMarketValue, 1e-9)

	_, err = s.RefreshPrices(ctx, staticQuotes{})
	assert.ErrorIs(t, err, quotes.ErrNoQuotes)
	assert.Equal(t, 120.0, s.Positions()[0].CurrentPrice)
}

type failingStore struct {
	journal.Store
	err error
}

func (f failingStore) Load(context.Context) (portfolio.Book, error) { return portfolio.Book{}, nil }

func (f failingStore) Update(_ context.Context, fn func(*portfolio.Book) error) (portfolio.Book, error) {
	var b portfolio.Book
	if err := fn(&b); err != nil {
		return portfolio.Book{}, err
	}
	return portfolio.Book{}, f.err
}

func TestFailedSaveLeavesBookUnchanged(t *testing.T) {
	t.Parallel()

	s, err := Open(context.Background(), failingStore{err: errors.New("disk full")})
	require.NoError(t, err)

	_, err = s.AddPosition(context.Background(), portfolio.Position{Symbol: "AAPL", Quantity: 1, CurrentPrice: 1, MarginRate: 0.3})
	assert.ErrorContains(t, err, "disk full")
	assert.Empty(t, s.Positions())
}

func TestTwoSessionsSharingOneJournal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.db")
	open := func() *Session {
		store, err := journal.NewSQLite(path)
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		s, err := Open(ctx, store, WithClock(func() time.Time { return fixedNow }))
		require.NoError(t, err)
		return s
	}

	// server and CLI each hold their own copy of the book
	server := open()
	_, err := server.AddPosition(ctx, portfolio.Position{Symbol: "AAPL", Quantity: 10, CurrentPrice: 100, MarginRate: 0.3})
	require.NoError(t, err)

	cli := open()
	_, err = cli.AddPosition(ctx, portfolio.Position{Symbol: "MSFT", Quantity: 5, CurrentPrice: 300, MarginRate: 0.3})
	require.NoError(t, err)

	n, err := server.UpdatePrices(ctx, map[string]float64{"AAPL": 101})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// the refresh keeps the position added by the other session
	symbols := func(ps []portfolio.Position) []string {
		var out []string
		for _, p := range ps {
			out = append(out, p.Symbol)
		}
		return out
	}
	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, symbols(server.Positions()))

	fresh := open()
	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, symbols(fresh.Positions()))
	assert.Equal(t, 101.0, fresh.Positions()[0].CurrentPrice)

	// a plain reload also picks up the other writer
	_, err = cli.AddTrade(ctx, portfolio.Trade{Symbol: "MSFT", Side: portfolio.Buy, Quantity: 1, Price: 300})
	require.NoError(t, err)
	assert.Empty(t, server.Trades())
	require.NoError(t, server.Reload(ctx))
	assert.Len(t, server.Trades(), 1)
}
