package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the marginpilot CLI.`,
	// no config or journal needed
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "marginpilot version %s\n", version)
		fmt.Fprintln(out, "Margin account risk monitor for stocks and options")
		fmt.Fprintln(out, "https://github.com/rustyeddy/marginpilot")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
