package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	backupFile  string
	restoreFile string

	backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Backup the wallet database",
		Long: `Write every stored collection to a JSON backup. Wallet secrets stay
encrypted, the backup can only be restored with the same passphrase.

Backups go to backup_dir/yy-mm-dd-hh-mm-ss/full-backup.json unless --file is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openAutomator("")
			if err != nil {
				return err
			}
			defer a.Close()

			if backupFile == "" {
				path, err := a.Backup()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Backup completed successfully to %s\n", path)
				return nil
			}

			f, err := os.OpenFile(backupFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
			if err != nil {
				return fmt.Errorf("failed to create backup file: %w", err)
			}
			defer f.Close()

			if err := a.WriteBackup(f); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Backup completed successfully to %s\n", backupFile)
			return nil
		},
	}

	restoreCmd = &cobra.Command{
		Use:   "restore",
		Short: "Restore the wallet database from a backup",
		Long: `Replace every stored collection with the content of a backup file.

Use --file to specify the backup file to restore from.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(restoreFile)
			if err != nil {
				return fmt.Errorf("failed to open backup file: %w", err)
			}
			defer f.Close()

			a, err := openAutomator("")
			if err != nil {
				return err
			}
			defer a.Close()

			doc, err := a.Restore(f)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Restored backup from %s, %d wallets\n",
				doc.Timestamp.Format("2006-01-02 15:04:05"), len(a.Wallets()))
			return nil
		},
	}
)

func init() {
	backupCmd.Flags().StringVarP(&backupFile, "file", "f", "", "Write the backup to this file instead of the backup directory")
	rootCmd.AddCommand(backupCmd)

	restoreCmd.Flags().StringVarP(&restoreFile, "file", "f", "", "Backup file to restore from (required)")
	restoreCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(restoreCmd)
}
