package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/marginpilot/format"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show or set the cash balance and margin loan",
	Long: `Show the account balances, or update them with "account set".

Examples:
  marginpilot account
  marginpilot account set --loan 42000
  marginpilot account set --cash -1500 --loan 0`,
	RunE: runAccountShow,
}

var accountSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update the cash balance and/or the margin loan",
	RunE:  runAccountSet,
}

var (
	accountCash float64
	accountLoan float64
)

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountSetCmd)

	accountSetCmd.Flags().Float64Var(&accountCash, "cash", 0, "cash balance")
	accountSetCmd.Flags().Float64Var(&accountLoan, "loan", 0, "margin loan (>= 0)")
}

func runAccountShow(cmd *cobra.Command, args []string) error {
	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	a := s.Account()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cash:        %s\n", format.Price(a.CashBalance))
	fmt.Fprintf(out, "Margin loan: %s\n", format.Price(a.MarginLoan))
	return nil
}

func runAccountSet(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if !flags.Changed("cash") && !flags.Changed("loan") {
		return fmt.Errorf("nothing to set: pass --cash and/or --loan")
	}

	s, closeFn, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	a := s.Account()
	if flags.Changed("cash") {
		a.CashBalance = accountCash
	}
	if flags.Changed("loan") {
		a.MarginLoan = accountLoan
	}
	if err := s.SetAccount(cmd.Context(), a); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Account updated: cash %s, loan %s\n",
		format.Price(a.CashBalance), format.Price(a.MarginLoan))
	return nil
}
