package cmd

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/AvaProtocol/ap-airdrop/core/cascade"
)

var (
	forwardAmount      string
	reverseDestination string

	cascadeCmd = &cobra.Command{
		Use:   "cascade",
		Short: "Move funds along the wallet chain",
	}

	cascadeForwardCmd = &cobra.Command{
		Use:   "forward",
		Short: "Send funds from the first wallet down to the last",
		Long: `Every wallet sends --amount to the next one, which receives it minus the
configured gas buffer. The first wallet must be funded beforehand. The first
failed transfer halts the cascade.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(forwardAmount)
			if err != nil {
				return fmt.Errorf("invalid --amount %q: %w", forwardAmount, err)
			}

			a, err := openAutomator("Forward cascade")
			if err != nil {
				return err
			}
			defer a.Close()

			defer stopOnInterrupt(a.StopCascade)()

			report, err := a.FundForward(context.Background(), amount)
			if report != nil {
				printCascade(cmd, report)
			}
			return err
		},
	}

	cascadeReverseCmd = &cobra.Command{
		Use:   "reverse",
		Short: "Collect funds from the last wallet back to a destination",
		Long: `Every wallet from the last to the first sends its balance, minus a small
reserve, to the previous wallet. The first wallet sends to --destination.
Failed transfers are reported and the cascade goes on.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openAutomator("Reverse cascade")
			if err != nil {
				return err
			}
			defer a.Close()

			defer stopOnInterrupt(a.StopCascade)()

			report, err := a.FundReverse(context.Background(), reverseDestination)
			if report != nil {
				printCascade(cmd, report)
			}
			return err
		},
	}
)

func printCascade(cmd *cobra.Command, r *cascade.Report) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d transfers, %d failed, %s moved\n",
		r.Mode, r.Outcome, r.Succeeded, r.Failed, r.Moved)
}

func init() {
	cascadeForwardCmd.Flags().StringVar(&forwardAmount, "amount", "", "Amount every wallet sends to the next")
	cascadeForwardCmd.MarkFlagRequired("amount")

	cascadeReverseCmd.Flags().StringVar(&reverseDestination, "destination", "", "Address the first wallet sends to")
	cascadeReverseCmd.MarkFlagRequired("destination")

	cascadeCmd.AddCommand(cascadeForwardCmd, cascadeReverseCmd)
	rootCmd.AddCommand(cascadeCmd)
}
