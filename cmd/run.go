package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AvaProtocol/ap-airdrop/core/runstate"
	"github.com/AvaProtocol/ap-airdrop/model"
)

var (
	runFilter         string
	runRandomizeOrder bool
	runTestnetDelay   float64
	runWalletDelay    float64
	runRandomizeGas   bool

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run every testnet task for every wallet",
		Long: `Run the tasks of every catalog testnet for every stored wallet. Testnets a
wallet already completed are skipped, so an interrupted run can simply be
started again.

Ctrl-C stops the run after the task in flight.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openAutomator("Running tasks")
			if err != nil {
				return err
			}
			defer a.Close()

			networks, err := a.Networks(context.Background(), runFilter)
			if err != nil {
				return err
			}

			defer stopOnInterrupt(a.StopTasks)()

			report, err := a.RunTasks(context.Background(), networks, runOptions(cmd))
			if err != nil {
				return err
			}

			printStats(cmd, report.Outcome, report.Stats)
			return nil
		},
	}
)

// runOptions collects the flags the user set, the rest keep their configured
// values
func runOptions(cmd *cobra.Command) map[string]any {
	options := map[string]any{}

	flags := cmd.Flags()
	if flags.Changed("randomize-order") {
		options["randomizeOrder"] = runRandomizeOrder
	}
	if flags.Changed("testnet-delay") {
		options["testnetDelay"] = runTestnetDelay
	}
	if flags.Changed("wallet-delay") {
		options["walletDelay"] = runWalletDelay
	}
	if flags.Changed("randomize-gas") {
		options["randomizeGas"] = runRandomizeGas
	}

	return options
}

func printStats(cmd *cobra.Command, outcome runstate.Outcome, s model.ExecutionStats) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d units, %d successful, %d failed, %d skipped\n",
		outcome, s.Completed, s.TotalTasks, s.Successful, s.Failed, s.Skipped)
}

// stopOnInterrupt calls stop on the first SIGINT or SIGTERM. The returned func
// releases the signal handler.
func stopOnInterrupt(stop func() bool) func() {
	sigs := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigs:
			stop()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

func init() {
	runCmd.Flags().StringVar(&runFilter, "filter", "", "Only run testnets matching this expression")
	runCmd.Flags().BoolVar(&runRandomizeOrder, "randomize-order", false, "Shuffle the testnet order")
	runCmd.Flags().Float64Var(&runTestnetDelay, "testnet-delay", 5, "Seconds to pause between testnets")
	runCmd.Flags().Float64Var(&runWalletDelay, "wallet-delay", 2, "Seconds to pause between wallets")
	runCmd.Flags().BoolVar(&runRandomizeGas, "randomize-gas", false, "Randomize swap and bridge amounts")

	rootCmd.AddCommand(runCmd)
}
