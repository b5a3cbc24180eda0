package main

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	appkg "github.com/xenking/brew-pos/internal/app"
	"github.com/xenking/brew-pos/internal/domain/user"
)

// cli carries state shared by all subcommands.
type cli struct {
	lg         *zap.Logger
	telemetry  *app.Telemetry
	configFile string
	app        *appkg.App
	root       *cobra.Command
}

func newCLI(lg *zap.Logger, m *app.Telemetry) *cli {
	c := &cli{lg: lg, telemetry: m}

	root := &cobra.Command{
		Use:           "pos",
		Short:         "Coffee shop point of sale terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "YAML config file")

	root.AddCommand(
		c.loginCommand(),
		c.logoutCommand(),
		c.whoamiCommand(),
		c.statusCommand(),
		c.productsCommand(),
		c.orderCommand(),
		c.salesCommand(),
		c.dashboardCommand(),
		c.reportCommand(),
		c.usersCommand(),
	)
	c.root = root
	return c
}

// execute runs the command line and releases the app even when a command
// fails.
func (c *cli) execute(ctx context.Context) (err error) {
	defer func() {
		if cerr := c.teardown(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return c.root.ExecuteContext(ctx)
}

func (c *cli) setup(ctx context.Context) error {
	if c.app != nil {
		return nil
	}
	var files []string
	if c.configFile != "" {
		files = append(files, c.configFile)
	}
	cfg, err := appkg.LoadConfig(files...)
	if err != nil {
		return err
	}
	a, err := appkg.New(ctx, c.lg, c.telemetry, cfg)
	if err != nil {
		return errors.Wrap(err, "initialize")
	}
	c.app = a
	return nil
}

func (c *cli) teardown() error {
	if c.app == nil {
		return nil
	}
	return c.app.Close()
}

// require re-validates the session and checks the current user's role.
func (c *cli) require(ctx context.Context, allowed func(user.User) bool) (user.User, error) {
	u, err := c.app.RequireUser(ctx, allowed)
	if err != nil {
		return u, errors.Wrap(err, "access check")
	}
	return u, nil
}
