package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doeshing/warden-go/internal/app"
)

// NewHistoryCommand creates the history command over the audit trail.
func NewHistoryCommand(container *app.Container) *cobra.Command {
	var (
		limit      int
		search     string
		session    bool
		clear      bool
		exportPath string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the action audit trail",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.AuditStore == nil {
				return errors.New(ErrAuditStoreUnavailable)
			}
			out := cmd.OutOrStdout()

			if clear {
				if err := container.AuditStore.Clear(); err != nil {
					return err
				}
				container.Orchestrator.ClearHistory()
				fmt.Fprintln(out, "Audit trail cleared.")
				return nil
			}

			if exportPath != "" {
				if err := container.AuditStore.ExportJSON(exportPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "Exported audit trail to %s\n", exportPath)
				return nil
			}

			if session {
				renderAuditEntries(out, container.Orchestrator.History(limit))
				return nil
			}

			entries, err := container.AuditStore.Records(limit, search)
			if err != nil {
				return err
			}
			renderAuditEntries(out, entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by target, message, or action type")
	cmd.Flags().BoolVar(&session, "session", false, "Show only this session's in-memory log")
	cmd.Flags().BoolVar(&clear, "clear", false, "Delete the audit trail")
	cmd.Flags().StringVar(&exportPath, "export", "", "Export the audit trail to a jsonl file")

	return cmd
}
