package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/AvaProtocol/ap-airdrop/model"
)

var (
	generateCount   int
	generateVariant string
	exportFile      string
	clearConfirmed  bool

	walletsCmd = &cobra.Command{
		Use:   "wallets",
		Short: "Manage the wallet set",
	}

	walletsGenerateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate new wallets",
		Long: `Generate new wallets and append them to the stored set.

Indexes continue after the highest index ever handed out, even when the set was
cleared in between.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openAutomator("Generating wallets")
			if err != nil {
				return err
			}
			defer a.Close()

			created, err := a.GenerateWallets(context.Background(), generateCount, model.ChainVariant(generateVariant))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "generated %d wallets, %d in total\n", len(created), len(a.Wallets()))
			return nil
		},
	}

	walletsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List wallets without their secrets",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openAutomator("")
			if err != nil {
				return err
			}
			defer a.Close()

			return printWallets(cmd, a.Wallets())
		},
	}

	walletsExportCmd = &cobra.Command{
		Use:   "export",
		Short: "Export wallets with secrets redacted",
		Long: `Write every wallet as JSON with the secret key and recovery phrase
replaced by a marker. Writes to stdout unless --file is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openAutomator("")
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if exportFile != "" {
				f, err := os.OpenFile(exportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
				if err != nil {
					return fmt.Errorf("cannot create export file: %w", err)
				}
				defer f.Close()
				out = f
			}

			n, err := a.Export(out)
			if err != nil {
				return err
			}

			if exportFile != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d wallets to %s\n", n, exportFile)
			}
			return nil
		},
	}

	walletsClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Remove every wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !clearConfirmed {
				return fmt.Errorf("refusing to clear wallets without --yes")
			}

			a, err := openAutomator("")
			if err != nil {
				return err
			}
			defer a.Close()

			count := len(a.Wallets())
			if err := a.ClearWallets(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "removed %d wallets\n", count)
			return nil
		},
	}
)

func printWallets(cmd *cobra.Command, wallets []*model.Wallet) error {
	rows := pterm.TableData{{"Index", "Chain", "Address", "Balance", "Completed"}}
	for _, w := range wallets {
		rows = append(rows, []string{
			strconv.FormatUint(w.Index, 10),
			string(w.ChainVariant),
			w.Address,
			w.Balance.String(),
			strconv.Itoa(len(w.CompletedTasks)),
		})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), table)
	return nil
}

func init() {
	walletsGenerateCmd.Flags().IntVarP(&generateCount, "count", "n", 10, "Number of wallets to generate")
	walletsGenerateCmd.Flags().StringVar(&generateVariant, "variant", string(model.ChainEVM), "Chain variant, evm or solana")

	walletsExportCmd.Flags().StringVarP(&exportFile, "file", "f", "", "Write the export to this file")

	walletsClearCmd.Flags().BoolVar(&clearConfirmed, "yes", false, "Confirm removing every wallet")

	walletsCmd.AddCommand(walletsGenerateCmd, walletsListCmd, walletsExportCmd, walletsClearCmd)
	rootCmd.AddCommand(walletsCmd)
}
