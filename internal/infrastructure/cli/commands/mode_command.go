package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doeshing/warden-go/internal/app"
	"github.com/doeshing/warden-go/internal/domain"
)

// NewModeCommand creates the mode command for inspecting and switching the
// active policy.
func NewModeCommand(container *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mode [interactive|auto|plan|watch]",
		Short: "Show or switch the active policy",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				active := container.Registry.Current()
				if active == nil {
					fmt.Fprintln(out, "No active policy.")
					return nil
				}
				fmt.Fprintf(out, "Current: %s %s\n\n", active.Kind(), active.Indicator())
				renderPolicyStats(out, active.Stats())

				if history := container.Registry.History(); len(history) > 1 {
					fmt.Fprintln(out, "\nTransitions:")
					for _, transition := range history {
						fmt.Fprintf(out, "  %s  %s\n", transition.At.Format("15:04:05"), transition.Kind)
					}
				}
				return nil
			}

			kind, ok := domain.ParsePolicyKind(args[0])
			if !ok {
				return fmt.Errorf("unknown mode %q (expected interactive, auto, plan, or watch)", args[0])
			}
			active, err := container.Registry.Switch(kind)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Switched to %s %s\n", active.Kind(), active.Indicator())
			return nil
		},
	}
	return cmd
}
