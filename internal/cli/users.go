package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"dealerhub/internal/models"
	"dealerhub/internal/service"
)

var errNoDatabase = errors.New("command needs a postgres connection; set postgres.dsn")

func newUserCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage platform accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newUserCreateCmd(app), newUserStatusCmd(app))
	return cmd
}

func newUserCreateCmd(app *App) *cobra.Command {
	var input service.CreateUserInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Example: `  dealerctl user create --email ops@example.com --password ... --role admin
  dealerctl user create --email rep@example.com --password ... --role seller --tenant t-42 --dealer d-7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Users == nil {
				return errNoDatabase
			}
			user, err := app.Users.Create(cmd.Context(), input)
			if err != nil {
				return err
			}
			cmd.Printf("created %s user %s (%s)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&input.Email, "email", "", "login email")
	flags.StringVar(&input.Password, "password", "", "initial password, at least 8 characters")
	flags.StringVar(&input.DisplayName, "name", "", "display name")
	flags.StringVar(&input.Role, "role", "", "admin, dealer, seller, advertiser or public")
	flags.StringVar(&input.TenantID, "tenant", "", "tenant id, required for every role except admin and public")
	flags.StringVar(&input.DealerID, "dealer", "", "dealer id, sellers only")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func newUserStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status <user-id> <active|suspended|pending>",
		Short: "Change an account's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Users == nil {
				return errNoDatabase
			}
			if err := app.Users.SetStatus(cmd.Context(), args[0], models.UserStatus(args[1])); err != nil {
				return err
			}
			cmd.Printf("user %s is now %s\n", args[0], args[1])
			return nil
		},
	}
}
