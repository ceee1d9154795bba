package commands

import (
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/doeshing/warden-go/internal/app"
	"github.com/doeshing/warden-go/internal/infrastructure/security"
)

// NewRulesCommand creates the rules command for inspecting risk rule tables.
func NewRulesCommand(container *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the loaded risk rule tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			rulesPath := container.Config.Security.RulesFile
			if rulesPath == "" {
				fmt.Fprintln(out, "Source: embedded defaults")
			} else {
				fmt.Fprintf(out, "Source: %s\n", rulesPath)
			}

			rules, err := security.LoadRules(rulesPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "critical: %d patterns\n", len(rules.Rules.Critical))
			fmt.Fprintf(out, "high:     %d patterns\n", len(rules.Rules.High))
			fmt.Fprintf(out, "medium:   %d patterns\n", len(rules.Rules.Medium))
			fmt.Fprintf(out, "paths:    %d protected, %d sensitive\n",
				len(rules.Paths.Protected), len(rules.Paths.Sensitive))
			return nil
		},
	}

	cmd.AddCommand(newRulesDiffCommand(container))
	return cmd
}

// newRulesDiffCommand compares the loaded tables against the embedded
// defaults.
func newRulesDiffCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Diff the loaded rule tables against the built-in defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := security.LoadRules(container.Config.Security.RulesFile)
			if err != nil {
				return err
			}
			defaults, err := security.DefaultRules()
			if err != nil {
				return err
			}

			diff := cmp.Diff(defaults, loaded)
			if diff == "" {
				fmt.Fprintln(cmd.OutOrStdout(), MsgRulesMatchDefaults)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), diff)
			return nil
		},
	}
}
