package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/s0up4200/vimeokit/account"
)

// loginCmd groups the grant subcommands
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with one of the supported OAuth grants",
}

func init() {
	loginCmd.AddCommand(loginClientCmd)
	loginCmd.AddCommand(loginCodeCmd)
	loginCmd.AddCommand(loginPinCmd)
	loginCmd.AddCommand(loginTokenCmd)
	loginCmd.AddCommand(loginPasswordCmd)
}

// loginClientCmd runs the client credentials grant
var loginClientCmd = &cobra.Command{
	Use:   "client",
	Short: "Authenticate the bare app (client credentials grant)",
	RunE: func(cmd *cobra.Command, args []string) error {
		acct, err := awaitAccount(func(completion func(*account.Account, error)) {
			controller.ClientCredentialsGrant(completion)
		})
		if err != nil {
			return err
		}
		fmt.Printf("Authenticated with scope %q\n", acct.Scope)
		return nil
	},
}

// loginCodeCmd runs the two-phase authorization code grant
var loginCodeCmd = &cobra.Command{
	Use:   "code",
	Short: "Authenticate a user via the authorization code grant",
	Long: `Opens phase one of the code grant: an authorization URL is printed for you
to open in a browser. After approving, paste the full redirect URL back here
to complete the token exchange.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Open this URL in a browser and approve access:")
		fmt.Println()
		fmt.Println("  " + controller.CodeGrantAuthorizationURL())
		fmt.Println()
		fmt.Print("Paste the redirect URL: ")

		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read redirect URL: %w", err)
		}

		acct, err := awaitAccount(func(completion func(*account.Account, error)) {
			controller.CodeGrant(strings.TrimSpace(line), completion)
		})
		if err != nil {
			return err
		}
		printUser(acct)
		return nil
	},
}

// loginPinCmd runs the pin code device flow
var loginPinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Authenticate a user via the pin code device flow",
	RunE: func(cmd *cobra.Command, args []string) error {
		acct, err := awaitAccount(func(completion func(*account.Account, error)) {
			controller.PinCodeGrant(func(pinCode, activateLink string) {
				fmt.Printf("Visit %s and enter the code %s\n", activateLink, pinCode)
				fmt.Println("Waiting for activation...")
			}, completion)
		})
		if err != nil {
			return err
		}
		printUser(acct)
		return nil
	},
}

// loginTokenCmd verifies and installs a constant access token
var loginTokenCmd = &cobra.Command{
	Use:   "token <access-token>",
	Short: "Verify and install a constant access token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		acct, err := awaitAccount(func(completion func(*account.Account, error)) {
			controller.VerifyAccessToken(&oauth2.Token{AccessToken: args[0], TokenType: "bearer"}, completion)
		})
		if err != nil {
			return err
		}
		printUser(acct)
		return nil
	},
}

var (
	loginEmail    string
	loginPassword string
)

// loginPasswordCmd authenticates with email and password
var loginPasswordCmd = &cobra.Command{
	Use:   "password",
	Short: "Authenticate a user with email and password",
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginEmail == "" || loginPassword == "" {
			return fmt.Errorf("--email and --password are required")
		}
		acct, err := awaitAccount(func(completion func(*account.Account, error)) {
			controller.LogIn(loginEmail, loginPassword, completion)
		})
		if err != nil {
			return err
		}
		printUser(acct)
		return nil
	},
}

func init() {
	loginPasswordCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginPasswordCmd.Flags().StringVar(&loginPassword, "password", "", "account password")
}

// awaitAccount bridges the callback-based controller API to the blocking CLI.
func awaitAccount(start func(completion func(*account.Account, error))) (*account.Account, error) {
	type outcome struct {
		acct *account.Account
		err  error
	}
	done := make(chan outcome, 1)

	start(func(acct *account.Account, err error) {
		done <- outcome{acct: acct, err: err}
	})

	result := <-done
	if result.err != nil {
		return nil, fmt.Errorf("authentication failed: %w", result.err)
	}
	return result.acct, nil
}

func printUser(acct *account.Account) {
	if acct.IsUser() {
		fmt.Printf("Logged in as %s\n", acct.User.Name)
		return
	}
	fmt.Println("Authenticated")
}
