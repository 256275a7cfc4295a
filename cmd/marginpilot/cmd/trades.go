package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/marginpilot/daytrade"
	"github.com/rustyeddy/marginpilot/format"
	"github.com/rustyeddy/marginpilot/journal"
	"github.com/rustyeddy/marginpilot/portfolio"
)

var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "Log day trades and track pattern-day-trader exposure",
	Long: `Record fills and summarize realized day-trade P&L. A buy and a sell of the
same symbol on the same date form one round trip.

Examples:
  marginpilot trades add --symbol TSLA --side buy --qty 10 --price 240 --fees 1
  marginpilot trades add --symbol TSLA --side sell --qty 10 --price 245 --fees 1
  marginpilot trades summary
  marginpilot trades export -o trades.csv`,
}

var (
	tradeDate   string
	tradeSymbol string
	tradeSide   string
	tradeQty    float64
	tradePrice  float64
	tradeFees   float64

	tradesExportOutput string
)

var tradesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a fill",
	RunE:  runTradesAdd,
}

var tradesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded fills, newest first",
	RunE:  runTradesList,
}

var tradesRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a fill",
	Args:    cobra.ExactArgs(1),
	RunE:    runTradesRemove,
}

var tradesSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Day-trade P&L, win rate and PDT count",
	RunE:  runTradesSummary,
}

var tradesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the trade log as CSV",
	RunE:  runTradesExport,
}

func init() {
	rootCmd.AddCommand(tradesCmd)
	tradesCmd.AddCommand(tradesAddCmd, tradesListCmd, tradesRemoveCmd, tradesSummaryCmd, tradesExportCmd)

	f := tradesAddCmd.Flags()
	f.StringVar(&tradeDate, "date", "", "trade date YYYY-MM-DD (defaults to today)")
	f.StringVar(&tradeSymbol, "symbol", "", "ticker symbol")
	f.StringVar(&tradeSide, "side", "", "buy or sell")
	f.Float64Var(&tradeQty, "qty", 0, "shares")
	f.Float64Var(&tradePrice, "price", 0, "fill price")
	f.Float64Var(&tradeFees, "fees", 0, "commission and fees")
	for _, name := range []string{"symbol", "side", "qty", "price"} {
		_ = tradesAddCmd.MarkFlagRequired(name)
	}

	tradesExportCmd.Flags().StringVarP(&tradesExportOutput, "output", "o", "", "output file (defaults to stdout)")
}

func runTradesAdd(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	t, err := s.AddTrade(cmd.Context(), portfolio.Trade{
		Date:     tradeDate,
		Symbol:   tradeSymbol,
		Side:     portfolio.Side(strings.ToLower(tradeSide)),
		Quantity: tradeQty,
		Price:    tradePrice,
		Fees:     tradeFees,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Recorded %s %s %g @ %s on %s (id %s)\n",
		t.Side, t.Symbol, t.Quantity, format.Price(t.Price), t.Date, t.ID)
	return nil
}

func runTradesList(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	out := cmd.OutOrStdout()
	trades := s.Trades()
	if len(trades) == 0 {
		fmt.Fprintln(out, "No trades.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tSYMBOL\tSIDE\tQTY\tPRICE\tFEES")
	for _, t := range trades {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%s\t%s\n",
			t.ID, t.Date, t.Symbol, t.Side, t.Quantity, format.Price(t.Price), format.Price(t.Fees))
	}
	return w.Flush()
}

func runTradesRemove(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	if err := s.RemoveTrade(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed trade %s\n", args[0])
	return nil
}

func runTradesSummary(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	out := cmd.OutOrStdout()
	printDayTrades(out, s.DayTrades(), s.Policy().MaxDayTrades)

	trips := daytrade.RoundTrips(s.Trades())
	if len(trips) == 0 {
		return nil
	}
	fmt.Fprintln(out, "\nRound trips:")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, rt := range trips {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", rt.Date, rt.Symbol, format.Pnl(rt.Pnl))
	}
	return w.Flush()
}

func printDayTrades(out io.Writer, sum daytrade.Summary, maxDayTrades int) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Today:\t%s\n", format.Pnl(sum.TodayPnl))
	fmt.Fprintf(w, "Last 7 days:\t%s\n", format.Pnl(sum.WeekPnl))
	fmt.Fprintf(w, "Last month:\t%s\n", format.Pnl(sum.MonthPnl))
	fmt.Fprintf(w, "Round trips:\t%d\n", sum.TotalTrades)
	fmt.Fprintf(w, "Win rate:\t%.2f%%\n", sum.WinRate)
	fmt.Fprintf(w, "Avg win / loss:\t%s / %s\n", format.Pnl(sum.AvgWin), format.Pnl(sum.AvgLoss))
	fmt.Fprintf(w, "Largest win / loss:\t%s / %s\n", format.Pnl(sum.LargestWin), format.Pnl(sum.LargestLoss))
	fmt.Fprintf(w, "Day trades (%d business days):\t%d of %d\n",
		daytrade.BusinessDayWindow, sum.DayTradesLast5Days, maxDayTrades)
	w.Flush()
}

func runTradesExport(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	if tradesExportOutput == "" {
		return journal.WriteTradesCSV(cmd.OutOrStdout(), s.Trades())
	}

	f, err := os.Create(tradesExportOutput)
	if err != nil {
		return err
	}
	if err := journal.WriteTradesCSV(f, s.Trades()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d trades to %s\n", len(s.Trades()), tradesExportOutput)
	return nil
}
