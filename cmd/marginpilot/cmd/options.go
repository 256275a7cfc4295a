package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/marginpilot/format"
	"github.com/rustyeddy/marginpilot/ocr"
	"github.com/rustyeddy/marginpilot/options"
	"github.com/rustyeddy/marginpilot/portfolio"
)

var optionsCmd = &cobra.Command{
	Use:     "options",
	Aliases: []string{"opt"},
	Short:   "Manage option positions and view leverage and P&L",
	Long: `Track option positions and see their delta exposure, leverage and P&L at
expiration. Deltas are estimated when a position is added and stay fixed until
"options refreeze" is run.

Examples:
  marginpilot options add --symbol AAPL --type call --strike 200 --exp 2025-01-17 --premium 5.20 --qty 2 --underlying 195
  marginpilot options list
  marginpilot options summary
  marginpilot options pnl --range 25 --steps 11
  marginpilot options import screenshot.png`,
}

var (
	optSymbol     string
	optType       string
	optStrike     float64
	optExp        string
	optPremium    float64
	optQty        float64
	optCurrent    float64
	optUnderlying float64

	pnlRange float64
	pnlSteps int

	importReplace bool
)

var optionsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an option position",
	RunE:  runOptionsAdd,
}

var optionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List option positions with leverage",
	RunE:  runOptionsList,
}

var optionsRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove an option position",
	Args:    cobra.ExactArgs(1),
	RunE:    runOptionsRemove,
}

var optionsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every option position",
	RunE:  runOptionsClear,
}

var optionsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Aggregate notional, net delta and P&L",
	RunE:  runOptionsSummary,
}

var optionsPnlCmd = &cobra.Command{
	Use:   "pnl",
	Short: "P&L at expiration across a range of underlying prices",
	RunE:  runOptionsPnl,
}

var optionsRefreezeCmd = &cobra.Command{
	Use:   "refreeze",
	Short: "Re-estimate stored deltas from current underlying prices",
	RunE:  runOptionsRefreeze,
}

var optionsImportCmd = &cobra.Command{
	Use:   "import <image>",
	Short: "Extract option positions from a brokerage screenshot",
	Long: `Send a screenshot to the configured vision model and add the option
positions it finds. Requires OPENAI_API_KEY.

Example:
  marginpilot options import ~/Desktop/positions.png --replace`,
	Args: cobra.ExactArgs(1),
	RunE: runOptionsImport,
}

func init() {
	rootCmd.AddCommand(optionsCmd)
	optionsCmd.AddCommand(optionsAddCmd, optionsListCmd, optionsRemoveCmd, optionsClearCmd,
		optionsSummaryCmd, optionsPnlCmd, optionsRefreezeCmd, optionsImportCmd)

	f := optionsAddCmd.Flags()
	f.StringVar(&optSymbol, "symbol", "", "underlying ticker")
	f.StringVar(&optType, "type", "call", "call or put")
	f.Float64Var(&optStrike, "strike", 0, "strike price")
	f.StringVar(&optExp, "exp", "", "expiration date (YYYY-MM-DD)")
	f.Float64Var(&optPremium, "premium", 0, "premium paid or received per share")
	f.Float64Var(&optQty, "qty", 1, "contracts, negative for written options")
	f.Float64Var(&optCurrent, "current", 0, "current option price (defaults to premium)")
	f.Float64Var(&optUnderlying, "underlying", 0, "underlying price (defaults to strike)")
	for _, name := range []string{"symbol", "strike", "exp"} {
		_ = optionsAddCmd.MarkFlagRequired(name)
	}

	def := options.DefaultPnlParams()
	optionsPnlCmd.Flags().Float64Var(&pnlRange, "range", def.RangePercent, "sweep ± this percent around the underlying")
	optionsPnlCmd.Flags().IntVar(&pnlSteps, "steps", def.Steps, "number of price points")

	optionsImportCmd.Flags().BoolVar(&importReplace, "replace", false, "clear existing options first")
}

func runOptionsAdd(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	o, err := s.AddOption(cmd.Context(), portfolio.OptionPosition{
		Symbol:          optSymbol,
		OptionType:      portfolio.OptionType(strings.ToLower(optType)),
		Strike:          optStrike,
		Expiration:      optExp,
		Premium:         optPremium,
		Quantity:        optQty,
		CurrentPrice:    optCurrent,
		UnderlyingPrice: optUnderlying,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %s (delta %s, id %s)\n", describeOption(o), format.Delta(o.Delta), o.ID)
	return nil
}

func describeOption(o portfolio.OptionPosition) string {
	return fmt.Sprintf("%g %s %s %s %s", o.Quantity, o.Symbol, o.Expiration, format.Price(o.Strike), strings.ToUpper(string(o.OptionType)))
}

func runOptionsList(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	printOptions(cmd.OutOrStdout(), s.Options())
	return nil
}

func printOptions(out io.Writer, positions []portfolio.OptionPosition) {
	if len(positions) == 0 {
		fmt.Fprintln(out, "No option positions.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPOSITION\tPREMIUM\tDELTA\tDELTA $\tLEVERAGE\tBREAK-EVEN\tMAX LOSS")
	for _, o := range positions {
		lev := options.CalculateLeverage(o)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s (%s)\t%s\t%s\n",
			o.ID, describeOption(o),
			format.Price(o.Premium),
			format.Delta(o.Delta),
			format.USD(lev.DeltaExposure),
			format.Multiplier(lev.LeverageRatio), options.LeverageBand(lev.LeverageRatio),
			format.Price(lev.BreakEvenPrice),
			format.USD(lev.MaxLoss))
	}
	w.Flush()
}

func runOptionsRemove(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	if err := s.RemoveOption(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed option %s\n", args[0])
	return nil
}

func runOptionsClear(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	n := len(s.Options())
	if err := s.ClearOptions(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared %d option positions\n", n)
	return nil
}

func runOptionsSummary(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	sum := s.OptionsSummary()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Positions:\t%d\n", len(s.Options()))
	fmt.Fprintf(w, "Notional:\t%s\n", format.USD(sum.TotalNotional))
	fmt.Fprintf(w, "Net delta:\t%s\n", format.USD(sum.NetDelta))
	fmt.Fprintf(w, "Premium paid:\t%s\n", format.USD(sum.TotalPremiumPaid))
	fmt.Fprintf(w, "Current value:\t%s\n", format.USD(sum.TotalCurrentValue))
	fmt.Fprintf(w, "P&L:\t%s\n", format.Pnl(sum.TotalPnl))
	return w.Flush()
}

func runOptionsPnl(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	out := cmd.OutOrStdout()
	points := s.PnlCurve(options.PnlParams{RangePercent: pnlRange, Steps: pnlSteps})
	if len(points) == 0 {
		fmt.Fprintln(out, "No option positions.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "UNDERLYING\tP&L\t")
	for _, pt := range points {
		marker := ""
		if pt.Label == options.LabelCurrent {
			marker = "← current"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", format.Price(pt.UnderlyingPrice), format.Pnl(pt.Pnl), marker)
	}
	return w.Flush()
}

func runOptionsRefreeze(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	updated, err := s.RefreezeDeltas(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Re-estimated %d deltas\n", len(updated))
	printOptions(cmd.OutOrStdout(), updated)
	return nil
}

func runOptionsImport(cmd *cobra.Command, args []string) error {
	found, err := extractOptions(cmd, args[0])
	if err != nil {
		return err
	}

	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	if importReplace {
		if err := s.ClearOptions(cmd.Context()); err != nil {
			return err
		}
	}
	n, err := s.ImportOptions(cmd.Context(), found)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d of %d option positions\n", n, len(found))
	return nil
}

func extractOptions(cmd *cobra.Command, path string) ([]portfolio.OptionPosition, error) {
	image, err := ocr.DataURLFromFile(path)
	if err != nil {
		return nil, err
	}
	ex := ocr.New(ocr.Config{
		BaseURL: cfg.OCR.BaseURL,
		APIKey:  cfg.OCR.APIKey,
		Model:   cfg.OCR.Model,
		Timeout: cfg.OCR.Timeout,
	}, log)
	return ex.Extract(cmd.Context(), image)
}
