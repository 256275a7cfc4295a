package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/marginpilot/format"
	"github.com/rustyeddy/marginpilot/risk"
)

var historyDays int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show journaled margin snapshots",
	Long: `List the margin snapshots recorded after each price refresh, oldest first.
Use --record to journal the current status now.

Example:
  marginpilot history --days 7
  marginpilot history --record`,
	RunE: runHistory,
}

var historyRecord bool

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyDays, "days", 30, "how many days back to show")
	historyCmd.Flags().BoolVar(&historyRecord, "record", false, "record a snapshot of the current status first")
}

func runHistory(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	if historyRecord {
		if err := s.RecordSnapshot(cmd.Context()); err != nil {
			return err
		}
	}

	snaps, err := s.History(cmd.Context(), historyDays)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(snaps) == 0 {
		fmt.Fprintf(out, "No snapshots in the last %d days.\n", historyDays)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tMARKET VALUE\tEQUITY\tLOAN\tUSAGE\tHEALTH")
	for _, snap := range snaps {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			snap.Time.In(s.Now().Location()).Format(time.DateTime),
			format.USD(snap.TotalMarketValue),
			format.USD(snap.TotalEquity),
			format.USD(snap.MarginLoan),
			format.Rate(snap.MarginUsageRate),
			risk.HealthLevel(snap.HealthLevel).Label())
	}
	return w.Flush()
}
