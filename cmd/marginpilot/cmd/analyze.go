package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/marginpilot/format"
)

var analyzeSell []string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Rank positions by what selling them does to margin",
	Long: `List every position with its P&L, portfolio weight and the margin usage rate
the account would have if that position alone were sold to pay down the loan.
Worst performers come first.

Use --sell to project selling several symbols at once.

Example:
  marginpilot analyze
  marginpilot analyze --sell TSLA,NVDA`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringSliceVar(&analyzeSell, "sell", nil, "symbols to project selling together")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	out := cmd.OutOrStdout()
	rows := s.Analysis()
	if len(rows) == 0 {
		fmt.Fprintln(out, "No positions.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tVALUE\tP&L\tP&L %\tWEIGHT\tMARGIN REQ\tUSAGE IF SOLD")
	for _, a := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.Symbol,
			format.USD(a.MarketValue),
			format.Pnl(a.PnL),
			format.Percent(a.PnLPercent),
			format.Rate(a.Weight),
			format.USD(a.MarginRequired),
			format.Rate(a.NewMarginRateIfSold),
		)
	}
	w.Flush()

	if len(analyzeSell) > 0 {
		fmt.Fprintf(out, "\nUsage after selling %v: %s (now %s)\n",
			analyzeSell,
			format.Rate(s.ProjectLiquidation(analyzeSell)),
			format.Rate(s.Status().MarginUsageRate))
	}
	return nil
}
