package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/AvaProtocol/ap-airdrop/automator"
	"github.com/AvaProtocol/ap-airdrop/core/config"
	"github.com/AvaProtocol/ap-airdrop/core/notify"
)

// rootCmd represents the base command when called without any subcommands
var (
	configPath = ""
	rootCmd    = &cobra.Command{
		Use:   "ap-airdrop",
		Short: "Testnet airdrop wallet automation",
		Long: `Generate wallets, run testnet tasks for every wallet and move funds
between them.

Wallet secrets are kept encrypted in a local database. Each sub command opens
that database, such as "ap-airdrop wallets generate" or "ap-airdrop run".
`,
		SilenceUsage: true,
	}
)

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// openAutomator loads the config and opens the automator with a terminal
// notifier titled progressTitle
func openAutomator(progressTitle string) (*automator.Automator, error) {
	c, err := config.NewConfig(configPath)
	if err != nil {
		return nil, err
	}

	return automator.New(c, notify.NewTerminal(progressTitle))
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file, defaults apply when empty")
}
