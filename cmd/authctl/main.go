// Command authctl drives the auth API from a terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hongminglow/sbc-auth/internal/client"
	"github.com/hongminglow/sbc-auth/internal/models/dto"
)

type options struct {
	server      string
	cookieName  string
	sessionFile string
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "authctl",
		Short:         "Register, sign in and inspect sessions against the auth server",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(out)

	defaultServer := os.Getenv("AUTHCTL_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	root.PersistentFlags().StringVar(&opts.server, "server", defaultServer, "auth server base URL")
	root.PersistentFlags().StringVar(&opts.cookieName, "cookie-name", "authToken", "session cookie name")
	root.PersistentFlags().StringVar(&opts.sessionFile, "session-file", defaultSessionPath(), "where the session token is kept")

	root.AddCommand(
		newRegisterCmd(opts),
		newLoginCmd(opts),
		newWhoamiCmd(opts),
		newLogoutCmd(opts),
	)
	return root
}

// newState builds a client state, restoring a saved token when one exists.
func newState(cmd *cobra.Command, opts *options) (*client.API, *client.State, error) {
	api, err := client.NewAPI(opts.server, opts.cookieName)
	if err != nil {
		return nil, nil, err
	}
	if saved, err := loadSession(opts.sessionFile); err == nil && saved.Server == opts.server {
		api.SetSessionToken(saved.Token)
	}
	nav := client.NavigatorFunc(func(path string) {
		fmt.Fprintf(cmd.OutOrStdout(), "-> %s\n", path)
	})
	return api, client.NewState(api, nav), nil
}

func newRegisterCmd(opts *options) *cobra.Command {
	var req dto.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Create an account. Registration does not sign in; run login afterwards.

Examples:
  authctl register --name Alice --email alice@example.com --phone 555-0100 --password secret1`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, state, err := newState(cmd, opts)
			if err != nil {
				return err
			}
			if err := state.Register(contextOf(cmd), req); err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Registration successful. Please sign in.")
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&req.Password, "password", "", "password")
	return cmd
}

func newLoginCmd(opts *options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, state, err := newState(cmd, opts)
			if err != nil {
				return err
			}
			user, err := state.Login(contextOf(cmd), email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if err := saveSession(opts.sessionFile, savedSession{
				Server: opts.server,
				Email:  user.Email,
				Token:  api.SessionToken(),
			}); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", user.Email, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	return cmd
}

func newWhoamiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, state, err := newState(cmd, opts)
			if err != nil {
				return err
			}
			state.Init(contextOf(cmd))
			user, ok := state.CurrentUser()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
				return nil
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "ID:    %s\n", user.ID)
			fmt.Fprintf(w, "Name:  %s\n", user.Name)
			fmt.Fprintf(w, "Email: %s\n", user.Email)
			fmt.Fprintf(w, "Phone: %s\n", user.Phone)
			fmt.Fprintf(w, "Role:  %s\n", user.Role)
			return nil
		},
	}
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the saved token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, state, err := newState(cmd, opts)
			if err != nil {
				return err
			}
			logoutErr := state.Logout(contextOf(cmd))
			if err := removeSession(opts.sessionFile); err != nil {
				return fmt.Errorf("remove session: %w", err)
			}
			if logoutErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "server logout failed: %v\n", logoutErr)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
