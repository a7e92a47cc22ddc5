package users

import (
	"github.com/spf13/cobra"

	"github.com/KshitijThareja/Orbyq/internal/config"
)

// Config returns the configuration loaded by the root command.
var Config func() *config.Config

// UsersCmd is the parent command for user management operations
var UsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
	Long:  `Commands for managing user accounts directly against the database.`,
}

func init() {
	createCmd.Flags().StringVar(&emailFlag, "email", "", "Email address of the user")
	createCmd.Flags().StringVar(&nameFlag, "name", "", "Display name of the user")
	createCmd.Flags().StringVar(&passwordFlag, "password", "", "Password for the user (use --stdin to avoid shell history)")
	createCmd.Flags().StringSliceVar(&rolesInput, "role", nil, "Role(s) to assign in addition to USER")
	createCmd.Flags().BoolVar(&stdinFlag, "stdin", false, "Read password from stdin instead of --password flag")

	rolesCmd.Flags().StringVar(&emailFlag, "email", "", "Email address of the user")
	rolesCmd.Flags().StringSliceVar(&rolesInput, "role", nil, "Complete role set for the user (repeatable)")

	UsersCmd.AddCommand(createCmd)
	UsersCmd.AddCommand(listCmd)
	UsersCmd.AddCommand(rolesCmd)
}
