package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doeshing/warden-go/internal/app"
)

// NewBackupsCommand creates the backups command with a rollback subcommand.
func NewBackupsCommand(container *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backups [path]",
		Short: "List file backups",
		Long:  "List backups for one file, or for every file when no path is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.FileManager == nil {
				return errors.New(ErrFileManagerUnavailable)
			}
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			backups, err := container.FileManager.ListBackups(path)
			if err != nil {
				return err
			}
			renderBackups(cmd.OutOrStdout(), backups)
			return nil
		},
	}

	cmd.AddCommand(newRollbackCommand(container))
	return cmd
}

func newRollbackCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <path> <backup-id>",
		Short: "Restore a file from a backup",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.FileManager == nil {
				return errors.New(ErrFileManagerUnavailable)
			}
			if err := container.FileManager.Rollback(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s from backup %s\n", args[0], args[1])
			return nil
		},
	}
}
