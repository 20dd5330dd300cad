package command

import (
	"fmt"
	"time"

	"mapportal/cmd/cli/authentication"
	"mapportal/cmd/cli/command/client"
	"mapportal/internal/microservices/http-api/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// authCmd represents the auth command for authentication related subcommands
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Authenticate with the map portal. Supports register, login, logout, whoami and account deletion.`,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.RegisterRequest
		req.Username, _ = cmd.Flags().GetString("username")
		req.Password, _ = cmd.Flags().GetString("password")
		req.Email, _ = cmd.Flags().GetString("email")

		response, err := client.NewHTTPClient(apiURL).Register(&req)
		if err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}
		if err := saveToken(response); err != nil {
			return err
		}

		color.Green("✓ Registration successful, you are now logged in.")
		fmt.Printf("UserID: %s\n", response.User.ID)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login with username or email",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.LoginRequest
		req.Username, _ = cmd.Flags().GetString("username")
		req.Password, _ = cmd.Flags().GetString("password")

		response, err := client.NewHTTPClient(apiURL).Login(&req)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		if err := saveToken(response); err != nil {
			return err
		}

		color.Green("✓ Logged in as %s", response.User.Username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := authentication.DeleteTokens(); err != nil {
			return fmt.Errorf("failed to clear token: %w", err)
		}
		color.Green("✓ Successfully logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		httpClient, err := GetAuthenticatedClient()
		if err != nil {
			return err
		}
		me, err := httpClient.Me()
		if err != nil {
			return err
		}
		fmt.Printf("ID: %s\nUsername: %s\nEmail: %s\nActive: %t\n", me.ID, me.Username, me.Email, me.IsActive)
		return nil
	},
}

var deleteAccountCmd = &cobra.Command{
	Use:   "delete-account",
	Short: "Delete your account with all its maps, ratings and comments",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("this cannot be undone, rerun with --yes to confirm")
		}
		httpClient, err := GetAuthenticatedClient()
		if err != nil {
			return err
		}
		if err := httpClient.DeleteAccount(); err != nil {
			return fmt.Errorf("failed to delete account: %w", err)
		}
		_ = authentication.DeleteTokens()
		color.Green("✓ Account deleted.")
		return nil
	},
}

func init() {
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(whoamiCmd)
	authCmd.AddCommand(deleteAccountCmd)

	registerCmd.Flags().StringP("username", "u", "", "Username for the new account")
	registerCmd.Flags().StringP("password", "p", "", "Password for the new account")
	registerCmd.Flags().StringP("email", "e", "", "Email address for the new account")
	registerCmd.MarkFlagRequired("username")
	registerCmd.MarkFlagRequired("password")
	registerCmd.MarkFlagRequired("email")

	loginCmd.Flags().StringP("username", "u", "", "Username or email")
	loginCmd.Flags().StringP("password", "p", "", "Password for the account")
	loginCmd.MarkFlagRequired("username")
	loginCmd.MarkFlagRequired("password")

	deleteAccountCmd.Flags().Bool("yes", false, "Confirm deletion")
}

func saveToken(resp *dto.AuthResponse) error {
	creds := &authentication.StoredCredentials{
		AccessToken: resp.AccessToken,
		Username:    resp.User.Username,
		ExpiresAt:   time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second).Unix(),
	}
	if err := authentication.StoreTokens(creds); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	return nil
}
