package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the backend",
	Long: `Log in and keep the session in the local store. Missing credentials
are read from standard input.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password, err := promptCredentials(cmd.InOrStdin(), cmd.OutOrStdout(), loginEmail, loginPassword)
		if err != nil {
			return err
		}
		user, err := app.auth.Login(cmd.Context(), email, password)
		if err != nil {
			return err
		}
		// the cache may belong to a previous user
		app.data.Reset()
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", displayName(user.Name, user.Email))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and clear the local cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app.auth.Logout(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		user, err := app.client.Me(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> %s\n", displayName(user.Name, user.Email), user.Email, user.Role)
		return nil
	},
}

func displayName(name, email string) string {
	if name != "" {
		return name
	}
	return email
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}
