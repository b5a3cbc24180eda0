package main

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/brew-pos/internal/domain/user"
)

func (c *cli) usersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage staff accounts",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.setup(cmd.Context()); err != nil {
				return err
			}
			_, err := c.require(cmd.Context(), user.User.CanManageUsers)
			return err
		},
	}
	cmd.AddCommand(
		c.usersListCommand(),
		c.usersAddCommand(),
		c.usersUpdateCommand(),
		c.usersDeleteCommand(),
		c.usersPasswdCommand(),
	)
	return cmd
}

func (c *cli) usersListCommand() *cobra.Command {
	var (
		q    user.Query
		role string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := c.app.Client.Users().List(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "load users")
			}
			if role != "" {
				q.Role = user.Role(role)
				if !q.Role.Valid() {
					return errors.Wrapf(user.ErrInvalidRole, "%q", role)
				}
			}

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tROLE\tACTIVE\tCREATED")
			for _, u := range user.Filter(users, q) {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\t%s\n",
					u.ID, u.Username, u.FullName, u.Role, u.Active, c.app.Format.Date(u.CreatedAt))
			}
			return w.Flush()
		},
	}
	f := cmd.Flags()
	f.StringVarP(&q.Search, "search", "s", "", "match username or name")
	f.StringVar(&role, "role", "", "only this role")
	f.BoolVar(&q.ActiveOnly, "active", false, "hide deactivated accounts")
	return cmd
}

func (c *cli) usersAddCommand() *cobra.Command {
	var (
		nu   user.NewUser
		role string
	)
	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nu.Username = args[0]
			nu.Role = user.Role(role)
			if nu.Password == "" {
				p, err := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).ask("Password: ")
				if err != nil {
					return err
				}
				nu.Password = p
			}
			if err := user.ValidateNew(nu); err != nil {
				return err
			}
			u, err := c.app.Client.Users().Create(cmd.Context(), nu)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user #%d %s (%s)\n", u.ID, u.Username, u.Role)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&nu.FullName, "name", "", "full name")
	f.StringVar(&role, "role", string(user.RoleCashier), "admin, manager or cashier")
	f.StringVarP(&nu.Password, "password", "p", "", "initial password (prompted when empty)")
	return cmd
}

func (c *cli) usersUpdateCommand() *cobra.Command {
	var (
		username, name, role string
		active               bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change an account's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			repo := c.app.Client.Users()
			users, err := repo.List(ctx)
			if err != nil {
				return errors.Wrap(err, "load users")
			}
			var u *user.User
			for i := range users {
				if users[i].ID == id {
					u = &users[i]
				}
			}
			if u == nil {
				return errors.Wrapf(user.ErrNotFound, "id %d", id)
			}

			f := cmd.Flags()
			if f.Changed("username") {
				u.Username = username
			}
			if f.Changed("name") {
				u.FullName = name
			}
			if f.Changed("role") {
				u.Role = user.Role(role)
			}
			if f.Changed("active") {
				u.Active = active
			}
			if err := user.ValidateUpdate(*u); err != nil {
				return err
			}
			updated, err := repo.Update(ctx, *u)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated user #%d %s\n", updated.ID, updated.Username)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&username, "username", "", "new username")
	f.StringVar(&name, "name", "", "full name")
	f.StringVar(&role, "role", "", "admin, manager or cashier")
	f.BoolVar(&active, "active", true, "whether the account may log in")
	return cmd
}

func (c *cli) usersDeleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if s, ok := c.app.Session.Current(); ok && s.User.ID == id {
				return errors.New("cannot delete the account you are logged in with")
			}
			if !yes {
				ok, err := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).confirm(fmt.Sprintf("Delete user #%d?", id))
				if err != nil || !ok {
					return err
				}
			}
			if err := c.app.Client.Users().Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user #%d\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func (c *cli) usersPasswdCommand() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "passwd <id>",
		Short: "Reset an account's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if password == "" {
				p, err := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).ask("New password: ")
				if err != nil {
					return err
				}
				password = p
			}
			if err := user.ValidatePassword(password); err != nil {
				return err
			}
			if err := c.app.Client.Users().ResetPassword(cmd.Context(), id, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password reset for user #%d\n", id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "new password (prompted when empty)")
	return cmd
}
