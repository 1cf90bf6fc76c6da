package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dealerhub/internal/featureflag"
	"dealerhub/internal/models"
)

func newFlagCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flag",
		Short: "Manage dashboard feature flags",
		Long: `Manage dashboard feature flags.

A flag without --tenant is the dashboard default. A tenant flag overrides the
default for that tenant only. Features with no flag at all are enabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newFlagSetCmd(app), newFlagListCmd(app), newFlagDeleteCmd(app))
	return cmd
}

type keyFlags struct {
	dashboard string
	feature   string
	tenant    string
}

func (k *keyFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&k.dashboard, "dashboard", "", "admin, dealer, seller, advertiser or public")
	cmd.Flags().StringVar(&k.feature, "feature", "", "feature key")
	cmd.Flags().StringVar(&k.tenant, "tenant", "", "tenant id; empty targets the dashboard default")
	_ = cmd.MarkFlagRequired("dashboard")
	_ = cmd.MarkFlagRequired("feature")
}

func (k *keyFlags) key() (featureflag.Key, error) {
	dashboard, ok := models.ParseDashboard(k.dashboard)
	if !ok {
		return featureflag.Key{}, fmt.Errorf("unknown dashboard %q", k.dashboard)
	}
	return featureflag.Key{Dashboard: dashboard, Feature: k.feature, TenantID: k.tenant}, nil
}

func newFlagSetCmd(app *App) *cobra.Command {
	var kf keyFlags
	var enabled bool

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Enable or disable a feature",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Flags == nil {
				return errNoDatabase
			}
			key, err := kf.key()
			if err != nil {
				return err
			}
			if err := app.Flags.Set(cmd.Context(), featureflag.Flag{Key: key, Enabled: enabled}); err != nil {
				return err
			}
			cmd.Printf("%s = %t\n", key, enabled)
			return nil
		},
	}
	kf.bind(cmd)
	cmd.Flags().BoolVar(&enabled, "enabled", false, "flag state")
	return cmd
}

func newFlagDeleteCmd(app *App) *cobra.Command {
	var kf keyFlags

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove a flag so the feature falls back to its default",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Flags == nil {
				return errNoDatabase
			}
			key, err := kf.key()
			if err != nil {
				return err
			}
			if err := app.Flags.Delete(cmd.Context(), key); err != nil {
				return err
			}
			cmd.Printf("%s removed\n", key)
			return nil
		},
	}
	kf.bind(cmd)
	return cmd
}

func newFlagListCmd(app *App) *cobra.Command {
	var dashboard string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the flags of a dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Flags == nil {
				return errNoDatabase
			}
			d, ok := models.ParseDashboard(dashboard)
			if !ok {
				return fmt.Errorf("unknown dashboard %q", dashboard)
			}
			flags, err := app.Flags.List(cmd.Context(), d)
			if err != nil {
				return err
			}
			if len(flags) == 0 {
				cmd.Println("no flags configured; every feature is enabled")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FEATURE\tTENANT\tENABLED")
			for _, f := range flags {
				tenant := f.TenantID
				if tenant == "" {
					tenant = "(default)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", f.Feature, tenant, strconv.FormatBool(f.Enabled))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&dashboard, "dashboard", "", "dashboard to list")
	_ = cmd.MarkFlagRequired("dashboard")
	return cmd
}
