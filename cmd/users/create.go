package users

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/KshitijThareja/Orbyq/cmd/cmdutil"
	"github.com/KshitijThareja/Orbyq/internal/auth"
	"github.com/KshitijThareja/Orbyq/internal/services/iam"
)

var (
	emailFlag    string
	nameFlag     string
	passwordFlag string
	rolesInput   []string
	stdinFlag    bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if emailFlag == "" {
			return fmt.Errorf("--email flag is required")
		}

		password := passwordFlag
		if stdinFlag {
			scanner := bufio.NewScanner(os.Stdin)
			fmt.Print("Enter password: ")
			if scanner.Scan() {
				password = scanner.Text()
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
		}
		if password == "" {
			return fmt.Errorf("password is required (use --password or --stdin)")
		}

		bundle, err := cmdutil.NewIAMServiceBundle(Config())
		if err != nil {
			return err
		}
		defer bundle.Close()

		ctx := context.Background()
		if _, err := bundle.Service.Register(ctx, iam.RegisterInput{
			Email:    emailFlag,
			Password: password,
			Name:     nameFlag,
		}); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		roles := []string{auth.RoleUser}
		if len(rolesInput) > 0 {
			user, err := bundle.Users.GetByEmail(ctx, emailFlag)
			if err != nil {
				return fmt.Errorf("failed to reload user: %w", err)
			}
			updated, err := bundle.Service.SetRoles(ctx, user.ID, append(roles, rolesInput...))
			if err != nil {
				return fmt.Errorf("failed to assign roles: %w", err)
			}
			roles = updated.Roles
		}

		pterm.Success.Printf("Created user %s with roles %v\n", emailFlag, roles)
		return nil
	},
}
