package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/KshitijThareja/Orbyq/cmd/cmdutil"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List user accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, err := cmdutil.NewIAMServiceBundle(Config())
		if err != nil {
			return err
		}
		defer bundle.Close()

		users, err := bundle.Service.ListUsers(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
		if len(users) == 0 {
			pterm.Info.Println("No users found.")
			return nil
		}

		table := pterm.TableData{{"ID", "EMAIL", "NAME", "ROLES", "CREATED"}}
		for _, u := range users {
			table = append(table, []string{
				u.ID, u.Email, u.Name, strings.Join(u.Roles, ","), u.CreatedAt.Format("2006-01-02"),
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(table).Render()
	},
}
