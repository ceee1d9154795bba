package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/doeshing/warden-go/internal/app"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run environment diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.DoctorService == nil {
				return errors.New(ErrDoctorUnavailable)
			}
			report, err := container.DoctorService.Run(cmd.Context())
			renderHealthReport(cmd.OutOrStdout(), report)
			return err
		},
	}
}
