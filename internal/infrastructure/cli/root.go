package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doeshing/warden-go/internal/app"
	"github.com/doeshing/warden-go/internal/domain"
	"github.com/doeshing/warden-go/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose    bool
	ConfigPath string
}

// NewRootCmd wires the cobra root command.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container, err := app.BuildContainer(ctx, app.Options{
		ConfigPath: opts.ConfigPath,
		Verbose:    opts.Verbose,
		Prompter:   NewPrompter(nil, nil),
	})
	if err != nil {
		return nil, err
	}

	// The session starts in the configured default policy.
	defaultKind, ok := domain.ParsePolicyKind(container.Config.DefaultMode)
	if !ok {
		defaultKind = domain.PolicyInteractive
	}
	if _, err := container.Registry.Switch(defaultKind); err != nil {
		return nil, fmt.Errorf("activate default policy: %w", err)
	}

	root := &cobra.Command{
		Use:   "warden",
		Short: "warden - guarded local action runner",
		Long:  "warden validates, confirms, and executes file and shell actions under switchable trust policies.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return container.Close()
	}

	root.AddCommand(commands.NewActCommand(container))
	root.AddCommand(commands.NewModeCommand(container))
	root.AddCommand(commands.NewHistoryCommand(container))
	root.AddCommand(commands.NewBackupsCommand(container))
	root.AddCommand(commands.NewRulesCommand(container))
	root.AddCommand(commands.NewDoctorCommand(container))
	root.AddCommand(commands.NewVersionCommand())
	return root, nil
}
