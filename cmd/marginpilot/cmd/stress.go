package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/marginpilot/format"
	"github.com/rustyeddy/marginpilot/portfolio"
)

var (
	stressDrop   float64
	stressSymbol string
	stressLadder []float64
)

var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Simulate a price drop against the account",
	Long: `Reprice positions down by a percentage and show the resulting margin status.
With --symbol only that ticker is shocked. With --ladder a table of drops is
printed instead.

Example:
  marginpilot stress --drop 20
  marginpilot stress --drop 35 --symbol TSLA
  marginpilot stress --ladder 10,20,30,40,50`,
	RunE: runStress,
}

func init() {
	rootCmd.AddCommand(stressCmd)
	stressCmd.Flags().Float64Var(&stressDrop, "drop", 20, "price drop in percent (0-100)")
	stressCmd.Flags().StringVar(&stressSymbol, "symbol", "", "only shock this symbol")
	stressCmd.Flags().Float64SliceVar(&stressLadder, "ladder", nil, "comma separated drops for a ladder table")
}

func runStress(cmd *cobra.Command, args []string) error {
	if stressDrop < 0 || stressDrop > 100 {
		return fmt.Errorf("--drop must be between 0 and 100, got %v", stressDrop)
	}
	for _, d := range stressLadder {
		if d < 0 || d > 100 {
			return fmt.Errorf("--ladder values must be between 0 and 100, got %v", d)
		}
	}

	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	out := cmd.OutOrStdout()
	if len(stressLadder) > 0 {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DROP\tEQUITY\tUSAGE\tEXCESS\tHEALTH")
		for _, pt := range s.StressLadder(stressLadder) {
			fmt.Fprintf(w, "-%g%%\t%s\t%s\t%s\t%s\n",
				pt.DropPercent,
				format.USD(pt.Status.TotalEquity),
				format.Rate(pt.Status.MarginUsageRate),
				format.USD(pt.Status.ExcessEquity),
				pt.Status.HealthLevel.Label())
		}
		return w.Flush()
	}

	symbol := portfolio.NormalizeSymbol(stressSymbol)
	target := "all positions"
	if symbol != "" {
		target = symbol
	}
	fmt.Fprintf(out, "Stress: %s down %g%%\n\n", target, stressDrop)
	printStatus(out, s.Stress(stressDrop, symbol))
	return nil
}
