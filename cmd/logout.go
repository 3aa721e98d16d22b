package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutKeepApp bool

// logoutCmd tears down the user session
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out the current user",
	Long: `Revokes the current access token (best effort), clears the client's
account and response cache, and removes the persisted user account. With
--keep-app a stored client-credentials account is reinstalled so app-level
requests keep working.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !client.Account().IsUser() {
			fmt.Println("No user is logged in.")
			return nil
		}

		if err := controller.LogOut(logoutKeepApp); err != nil {
			return fmt.Errorf("logout failed: %w", err)
		}

		fmt.Println("Logged out.")
		return nil
	},
}

func init() {
	logoutCmd.Flags().BoolVar(&logoutKeepApp, "keep-app", false, "reinstall a stored client-credentials account")
}
