package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr <image>",
	Short: "Extract option positions from a screenshot without saving them",
	Long: `Send a brokerage screenshot to the configured vision model and print the
option positions it finds. Nothing is stored; use "options import" for that.
Requires OPENAI_API_KEY.

Example:
  marginpilot ocr ~/Desktop/positions.png`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

func init() {
	rootCmd.AddCommand(ocrCmd)
}

func runOCR(cmd *cobra.Command, args []string) error {
	found, err := extractOptions(cmd, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Found %d option positions:\n", len(found))
	for _, o := range found {
		fmt.Fprintf(out, "  %s premium %g current %g\n", describeOption(o), o.Premium, o.CurrentPrice)
	}
	return nil
}
