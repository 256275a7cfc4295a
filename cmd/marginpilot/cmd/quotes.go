package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/marginpilot/format"
	"github.com/rustyeddy/marginpilot/quotes"
)

var quotesCmd = &cobra.Command{
	Use:   "quotes [symbol...]",
	Short: "Look up current prices",
	Long: `Fetch current prices from the configured sources, trying each in order
until one answers. With no symbols, every ticker in the book is looked up and
nothing is saved; use "positions refresh" to apply prices.

Examples:
  marginpilot quotes AAPL MSFT
  marginpilot quotes`,
	RunE: runQuotes,
}

func init() {
	rootCmd.AddCommand(quotesCmd)
}

func runQuotes(cmd *cobra.Command, args []string) error {
	symbols := quotes.Symbols(args)
	if len(symbols) == 0 {
		s, closeFn, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		symbols = s.Symbols()
		closeFn()
	}

	out := cmd.OutOrStdout()
	if len(symbols) == 0 {
		fmt.Fprintln(out, "No symbols.")
		return nil
	}

	src, closeQuotes, err := quoteSource(nil)
	if err != nil {
		return err
	}
	defer closeQuotes()

	prices, err := src.Quotes(cmd.Context(), symbols)
	if err != nil && !errors.Is(err, quotes.ErrNoQuotes) {
		return err
	}
	for _, sym := range symbols {
		if p, ok := prices[sym]; ok {
			fmt.Fprintf(out, "%-6s %s\n", sym, format.Price(p))
		} else {
			fmt.Fprintf(out, "%-6s n/a\n", sym)
		}
	}
	if len(prices) == 0 {
		return err
	}
	return nil
}
