package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"support-desk/internal/services"
)

// newAdminCommand provisions support staff. Admin accounts cannot be
// created through the public signup endpoint.
func newAdminCommand(srv *server) *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage support staff accounts",
	}

	var in services.SignUpInput
	create := &cobra.Command{
		Use:          "create",
		Short:        "Create an admin account",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := srv.app.RunAllMigrations(); err != nil {
				return fmt.Errorf("applying migrations: %w", err)
			}

			actor, err := srv.authService.CreateAdmin(cmd.Context(), in)
			if err != nil {
				return err
			}
			cmd.Printf("Created admin %s (%s)\n", actor.Email, actor.ID)
			return nil
		},
	}
	create.Flags().StringVar(&in.Email, "email", "", "admin email")
	create.Flags().StringVar(&in.Password, "password", "", "admin password")
	create.Flags().StringVar(&in.Name, "name", "", "display name")
	create.Flags().StringVar(&in.Organization, "organization", "Support", "organization shown to companies")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")
	_ = create.MarkFlagRequired("name")

	admin.AddCommand(create)
	return admin
}
