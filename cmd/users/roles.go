package users

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/KshitijThareja/Orbyq/cmd/cmdutil"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Replace the role set of a user",
	Long: `Replaces the roles of the user identified by --email. Roles take effect on
the next login or refresh, since issued access tokens carry their roles.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if emailFlag == "" {
			return fmt.Errorf("--email flag is required")
		}
		if len(rolesInput) == 0 {
			return fmt.Errorf("at least one role must be specified using --role")
		}

		bundle, err := cmdutil.NewIAMServiceBundle(Config())
		if err != nil {
			return err
		}
		defer bundle.Close()

		ctx := context.Background()
		user, err := bundle.Users.GetByEmail(ctx, emailFlag)
		if err != nil {
			return fmt.Errorf("failed to find user %s: %w", emailFlag, err)
		}
		updated, err := bundle.Service.SetRoles(ctx, user.ID, rolesInput)
		if err != nil {
			return fmt.Errorf("failed to set roles: %w", err)
		}

		pterm.Success.Printf("User %s now has roles %v\n", updated.Email, []string(updated.Roles))
		return nil
	},
}
