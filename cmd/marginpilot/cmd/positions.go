package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/marginpilot/format"
	"github.com/rustyeddy/marginpilot/id"
	"github.com/rustyeddy/marginpilot/journal"
	"github.com/rustyeddy/marginpilot/portfolio"
	"github.com/rustyeddy/marginpilot/quotes"
	"github.com/rustyeddy/marginpilot/session"
)

var positionsCmd = &cobra.Command{
	Use:     "positions",
	Aliases: []string{"pos"},
	Short:   "Manage stock positions",
	Long: `Add, list, update, remove and import the stock positions held on margin.

Examples:
  marginpilot positions add --symbol AAPL --qty 100 --cost 150 --price 180
  marginpilot positions list
  marginpilot positions price 01HV... --price 175.20
  marginpilot positions import ~/Downloads/Positions.csv
  marginpilot positions refresh`,
}

var (
	posSymbol string
	posQty    float64
	posCost   float64
	posPrice  float64
	posRate   float64
)

var positionsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a position",
	RunE:  runPositionsAdd,
}

var positionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List positions",
	RunE:  runPositionsList,
}

var positionsPriceCmd = &cobra.Command{
	Use:   "price <id>",
	Short: "Set the current price of a position",
	Args:  cobra.ExactArgs(1),
	RunE:  runPositionsPrice,
}

var positionsRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a position",
	Args:    cobra.ExactArgs(1),
	RunE:    runPositionsRemove,
}

var positionsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import positions from a brokerage CSV export or a YAML list",
	Long: `Import positions from a Schwab "Positions" CSV export. Files ending in .yaml
or .yml are read as a list of positions instead. Rows that fail validation are
skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runPositionsImport,
}

var positionsRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh prices from the configured quote sources",
	RunE:  runPositionsRefresh,
}

func init() {
	rootCmd.AddCommand(positionsCmd)
	positionsCmd.AddCommand(positionsAddCmd, positionsListCmd, positionsPriceCmd,
		positionsRemoveCmd, positionsImportCmd, positionsRefreshCmd)

	positionsAddCmd.Flags().StringVar(&posSymbol, "symbol", "", "ticker symbol")
	positionsAddCmd.Flags().Float64Var(&posQty, "qty", 0, "number of shares")
	positionsAddCmd.Flags().Float64Var(&posCost, "cost", 0, "average cost per share")
	positionsAddCmd.Flags().Float64Var(&posPrice, "price", 0, "current price (defaults to cost)")
	positionsAddCmd.Flags().Float64Var(&posRate, "rate", portfolio.DefaultMarginRate,
		"maintenance margin rate (0-1); brokers commonly use "+ratePresets())
	_ = positionsAddCmd.MarkFlagRequired("symbol")
	_ = positionsAddCmd.MarkFlagRequired("qty")

	positionsPriceCmd.Flags().Float64Var(&posPrice, "price", 0, "new current price")
	_ = positionsPriceCmd.MarkFlagRequired("price")
}

func runPositionsAdd(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	price := posPrice
	if price == 0 {
		price = posCost
	}
	if !slices.Contains(portfolio.MarginRatePresets, posRate) {
		log.Warn("unusual maintenance rate", zap.Float64("rate", posRate), zap.String("common", ratePresets()))
	}
	p, err := s.AddPosition(cmd.Context(), portfolio.Position{
		Symbol:       posSymbol,
		Quantity:     posQty,
		AvgCost:      posCost,
		CurrentPrice: price,
		MarginRate:   posRate,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %s %g @ %s (id %s)\n",
		p.Symbol, p.Quantity, format.Price(p.CurrentPrice), p.ID)
	return nil
}

func runPositionsList(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	out := cmd.OutOrStdout()
	positions := s.Positions()
	if len(positions) == 0 {
		fmt.Fprintln(out, "No positions.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tADDED\tSYMBOL\tQTY\tAVG COST\tPRICE\tVALUE\tRATE")
	for _, p := range positions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%s\t%s\t%s\t%s\n",
			p.ID, added(p.ID), p.Symbol, p.Quantity,
			format.Price(p.AvgCost),
			format.Price(p.CurrentPrice),
			format.USD(p.MarketValue()),
			format.Rate(p.MarginRate))
	}
	return w.Flush()
}

// added is the creation date carried in a record id.
func added(recordID string) string {
	t, ok := id.Time(recordID)
	if !ok {
		return "-"
	}
	return t.Local().Format(portfolio.DateLayout)
}

// ratePresets renders the common broker maintenance rates: "25.0%, 30.0%, ...".
func ratePresets() string {
	parts := make([]string, 0, len(portfolio.MarginRatePresets))
	for _, r := range portfolio.MarginRatePresets {
		parts = append(parts, format.Rate(r))
	}
	return strings.Join(parts, ", ")
}

func runPositionsPrice(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	p, err := s.UpdatePosition(cmd.Context(), args[0], func(p *portfolio.Position) {
		p.CurrentPrice = posPrice
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s now %s\n", p.Symbol, format.Price(p.CurrentPrice))
	return nil
}

func runPositionsRemove(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	if err := s.RemovePosition(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed position %s\n", args[0])
	return nil
}

func runPositionsImport(cmd *cobra.Command, args []string) error {
	positions, err := readPositionsFile(args[0])
	if err != nil {
		return err
	}

	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	n, err := s.ImportPositions(cmd.Context(), positions)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d of %d positions from %s\n", n, len(positions), args[0])
	return nil
}

func readPositionsFile(path string) ([]portfolio.Position, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var positions []portfolio.Position
		if err := yaml.NewDecoder(f).Decode(&positions); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		for i := range positions {
			if positions[i].MarginRate == 0 {
				positions[i].MarginRate = portfolio.DefaultMarginRate
			}
		}
		return positions, nil
	default:
		return journal.ParseSchwabCSV(f)
	}
}

func runPositionsRefresh(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	src, closeQuotes, err := quoteSource(nil)
	if err != nil {
		return err
	}
	defer closeQuotes()
	return refreshPrices(cmd, s, src)
}

func refreshPrices(cmd *cobra.Command, s *session.Session, src quotes.Source) error {
	out := cmd.OutOrStdout()
	want := len(s.Symbols())
	if want == 0 {
		fmt.Fprintln(out, "Nothing to refresh.")
		return nil
	}

	prices, err := s.RefreshPrices(cmd.Context(), src)
	if errors.Is(err, quotes.ErrNoQuotes) {
		return fmt.Errorf("no quotes available, prices left unchanged: %w", err)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Refreshed %d of %d symbols\n", len(prices), want)
	for _, sym := range quotes.Symbols(keys(prices)) {
		fmt.Fprintf(out, "  %-6s %s\n", sym, format.Price(prices[sym]))
	}
	return nil
}

func keys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
