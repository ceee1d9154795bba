package commands

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/warden-go/internal/app"
	"github.com/doeshing/warden-go/internal/domain"
)

// NewActCommand creates the act command that submits one action to the
// active policy.
func NewActCommand(container *app.Container) *cobra.Command {
	var (
		content     string
		oldContent  string
		newContent  string
		command     string
		query       string
		destination string
		planType    string
		planContent string
		reason      string
		showStats   bool
	)

	cmd := &cobra.Command{
		Use:   "act <action-type> [target]",
		Short: "Submit an action to the active policy",
		Long: "Submit an action (read_file, write_file, edit_file, delete_file, create_file,\n" +
			"move_file, run_command, generate_plan, analyze_change, list_files, search)\n" +
			"to the active policy for validation, confirmation, and execution.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.Orchestrator == nil {
				return errors.New(ErrOrchestratorUnavailable)
			}

			actionType := domain.ActionType(strings.ToLower(args[0]))
			target := ""
			if len(args) > 1 {
				target = args[1]
			}

			details := map[string]any{}
			if content != "" {
				details["content"] = content
			}
			if oldContent != "" {
				details["old_content"] = oldContent
			}
			if newContent != "" {
				details["new_content"] = newContent
			}
			if command != "" {
				details["command"] = command
			}
			if query != "" {
				details["query"] = query
			}
			if destination != "" {
				details["destination"] = destination
			}
			if planType != "" {
				details["plan_type"] = planType
			}
			if planContent != "" {
				details["content"] = planContent
			}
			if reason != "" {
				details["reason"] = reason
			}

			if actionType == domain.ActionRunCommand && command == "" && target == "" {
				return errors.New(ErrCommandRequired)
			}

			req := &domain.ActionRequest{
				ActionType: actionType,
				Target:     target,
				Details:    details,
			}
			result := container.Orchestrator.HandleAction(cmd.Context(), req)
			renderResult(cmd.OutOrStdout(), result)

			if showStats {
				renderStats(cmd.OutOrStdout(), container.Orchestrator.Stats())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&content, "content", "", "File content for write/create actions")
	cmd.Flags().StringVar(&oldContent, "old", "", "Fragment to replace for edit actions")
	cmd.Flags().StringVar(&newContent, "new", "", "Replacement fragment for edit actions")
	cmd.Flags().StringVarP(&command, "command", "c", "", "Shell command for run_command")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Search query for search")
	cmd.Flags().StringVar(&destination, "dest", "", "Destination path for move_file")
	cmd.Flags().StringVar(&planType, "plan-type", "", "Plan document type for generate_plan")
	cmd.Flags().StringVar(&planContent, "plan-content", "", "Plan body for generate_plan")
	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded with backups")
	cmd.Flags().BoolVar(&showStats, "stats", false, "Print session statistics afterwards")

	return cmd
}
