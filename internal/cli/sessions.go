package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func newSessionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Session maintenance",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Delete expired sessions now instead of waiting for the scheduled job",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Sessions == nil {
				return errors.New("no session store configured")
			}
			removed, err := app.Sessions.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("removed %d expired sessions\n", removed)
			return nil
		},
	})
	return cmd
}
