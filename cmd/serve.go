package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve the HTTP API on http_bind_address and take periodic backups when
backup_interval is set. Runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openAutomator("")
		if err != nil {
			return err
		}

		return a.Start(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
