package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/marginpilot/format"
	"github.com/rustyeddy/marginpilot/risk"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show margin usage, equity and health",
	Long: `Show the account-wide margin snapshot: market value, equity, loan, maintenance
requirement, excess equity, buying power and the health level. Alerts for the
configured thresholds and the pattern-day-trader guard are listed below.

Example:
  marginpilot status
  marginpilot status --db ~/margin.db`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	out := cmd.OutOrStdout()
	printStatus(out, s.Status())

	alerts := s.Alerts()
	if alerts.Allowed {
		fmt.Fprintln(out, "\n✓ No alerts")
		return nil
	}
	fmt.Fprintln(out, "\nAlerts:")
	for _, v := range alerts.Violations {
		fmt.Fprintf(out, "  ✗ %-14s %s\n", v.Code, v.Msg)
	}
	return nil
}

func printStatus(out io.Writer, st risk.MarginStatus) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Health:\t%s\n", st.HealthLevel.Label())
	fmt.Fprintf(w, "Market value:\t%s\n", format.USD(st.TotalMarketValue))
	fmt.Fprintf(w, "Equity:\t%s\n", format.USD(st.TotalEquity))
	fmt.Fprintf(w, "Margin usage:\t%s\n", format.Rate(st.MarginUsageRate))
	fmt.Fprintf(w, "Maintenance:\t%s\n", format.USD(st.MaintenanceRequired))
	fmt.Fprintf(w, "Excess equity:\t%s\n", format.USD(st.ExcessEquity))
	fmt.Fprintf(w, "To margin call:\t%s\n", format.USD(st.DistanceToMarginCall))
	fmt.Fprintf(w, "Buying power:\t%s\n", format.USD(st.BuyingPower))
	if len(st.ConcentratedPositions) > 0 {
		fmt.Fprintf(w, "Concentrated:\t%v\n", st.ConcentratedPositions)
	}
	w.Flush()
}
