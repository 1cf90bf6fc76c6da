// Package cli implements dealerctl, the operator tool for bootstrapping
// accounts, managing feature flags and running maintenance by hand.
package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"dealerhub/internal/featureflag"
	"dealerhub/internal/service"
	"dealerhub/internal/session"
)

// App carries the dependencies the commands act on. Nil members disable the
// commands that need them.
type App struct {
	Users    *service.UserService
	Flags    featureflag.Store
	Sessions *session.Store
	Migrate  func(ctx context.Context) error
}

func NewRootCmd(app *App, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "dealerctl",
		Short:         "Operate the dealerhub access-control service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(out)

	root.AddCommand(
		newMigrateCmd(app),
		newUserCmd(app),
		newFlagCmd(app),
		newSessionsCmd(app),
	)
	return root
}

func newMigrateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the users, sessions and feature flag tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Migrate == nil {
				return errNoDatabase
			}
			if err := app.Migrate(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("schema up to date")
			return nil
		},
	}
}
