package main

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/brew-pos/internal/backend"
	"github.com/xenking/brew-pos/internal/domain/auth"
)

func (c *cli) loginCommand() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Log in to the backend",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			var username string
			if len(args) == 1 {
				username = args[0]
			} else {
				v, err := p.ask("Username: ")
				if err != nil {
					return err
				}
				username = v
			}
			if password == "" {
				v, err := p.ask("Password: ")
				if err != nil {
					return err
				}
				password = v
			}

			s, err := c.app.Session.Login(cmd.Context(), username, password)
			if err != nil {
				if errors.Is(err, auth.ErrUnauthorized) {
					return errors.New("invalid username or password")
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", s.User.DisplayName(), s.User.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when empty)")
	return cmd
}

func (c *cli) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (c *cli) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := c.require(cmd.Context(), nil)
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintf(w, "Username\t%s\n", u.Username)
			fmt.Fprintf(w, "Name\t%s\n", u.DisplayName())
			fmt.Fprintf(w, "Role\t%s\n", u.Role)
			fmt.Fprintf(w, "Member since\t%s\n", c.app.Format.Date(u.CreatedAt))
			return w.Flush()
		},
	}
}

func (c *cli) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show backend connectivity and session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			w := newTable(out)
			fmt.Fprintf(w, "Backend\t%s\n", c.app.Config.BaseURL)

			for _, s := range c.app.Health.CheckNow(cmd.Context()) {
				state := "reachable"
				if s.LastError != nil {
					state = "unreachable: " + s.LastError.Error()
				}
				fmt.Fprintf(w, "Probe %s\t%s\n", s.Name, state)
			}
			fmt.Fprintf(w, "Circuit breaker\t%s\n", c.app.Client.BreakerState())

			if s, ok := c.app.Session.Current(); ok {
				fmt.Fprintf(w, "Session\t%s (%s), saved %s\n", s.User.Username, s.User.Role, c.app.Format.DateTime(s.SavedAt))
			} else {
				fmt.Fprintf(w, "Session\tnot logged in\n")
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if _, ok := c.app.Session.Current(); ok {
				if _, err := c.app.Session.Refresh(cmd.Context()); err != nil {
					switch {
					case errors.Is(err, auth.ErrSessionExpired):
						fmt.Fprintln(out, "Session expired; log in again")
					case backend.IsNetworkOrServer(err):
						fmt.Fprintf(out, "Session could not be verified: %v\n", err)
					default:
						return err
					}
				}
			}
			return nil
		},
	}
}
