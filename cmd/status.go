package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/AvaProtocol/ap-airdrop/model"
)

var (
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Display system status",
		Long:  `Display status information about the stored wallets and their completed testnets`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openAutomator("")
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "❌ Failed to open the wallet database: %v\n", err)
				fmt.Fprintf(cmd.OutOrStdout(), "   💡 Check db_path and the passphrase in your config\n")
				return err
			}
			defer a.Close()

			writeStatus(cmd.OutOrStdout(), a.Wallets())
			return nil
		},
	}
)

func writeStatus(out io.Writer, wallets []*model.Wallet) {
	fmt.Fprintf(out, "📊 System Status Report\n")
	fmt.Fprintf(out, "======================\n\n")

	fmt.Fprintf(out, "👛 Wallets: %d\n", len(wallets))
	if len(wallets) == 0 {
		fmt.Fprintf(out, "   💡 Run \"ap-airdrop wallets generate\" to create some\n")
		return
	}

	byVariant := lo.CountValuesBy(wallets, func(w *model.Wallet) model.ChainVariant { return w.ChainVariant })
	variants := lo.Keys(byVariant)
	sort.Slice(variants, func(i, j int) bool { return variants[i] < variants[j] })
	for _, v := range variants {
		fmt.Fprintf(out, "   %s: %d\n", v, byVariant[v])
	}

	total := lo.Reduce(wallets, func(sum decimal.Decimal, w *model.Wallet, _ int) decimal.Decimal {
		return sum.Add(w.Balance)
	}, decimal.Zero)
	fmt.Fprintf(out, "💰 Total balance: %s\n", total)

	completed := lo.CountValues(lo.FlatMap(wallets, func(w *model.Wallet, _ int) []string { return w.CompletedTasks }))
	fmt.Fprintf(out, "\n✅ Completed testnets:\n")
	if len(completed) == 0 {
		fmt.Fprintf(out, "   none yet\n")
		return
	}

	networks := lo.Keys(completed)
	sort.Strings(networks)
	for _, name := range networks {
		fmt.Fprintf(out, "   %s: %d/%d wallets\n", name, completed[name], len(wallets))
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
