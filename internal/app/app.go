// Package app wires the terminal's components together.
package app

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/xenking/brew-pos/internal/backend"
	"github.com/xenking/brew-pos/internal/domain/auth"
	"github.com/xenking/brew-pos/internal/domain/checkout"
	"github.com/xenking/brew-pos/internal/domain/dashboard"
	"github.com/xenking/brew-pos/internal/domain/user"
	"github.com/xenking/brew-pos/internal/format"
	"github.com/xenking/brew-pos/internal/notice"
	"github.com/xenking/brew-pos/internal/storage/sqlite"
	"github.com/xenking/brew-pos/pkg/health"
)

// App holds every long-lived component of a terminal session.
type App struct {
	Config  *Config
	Logger  *zap.Logger
	Client  *backend.Client
	Session *auth.Manager
	Format  *format.Formatter
	Notices *notice.Board
	Health  *health.Monitor

	telemetry *app.Telemetry
	db        *sqlx.DB
}

// New creates all dependencies and restores the persisted session. m may
// be nil, in which case telemetry is not exported.
func New(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) (*App, error) {
	f, err := format.New(format.Config{
		Currency: cfg.Format.Currency,
		Symbol:   cfg.Format.Symbol,
		Locale:   cfg.Format.Locale,
		TimeZone: cfg.Format.TimeZone,
	})
	if err != nil {
		return nil, errors.Wrap(err, "formatter")
	}

	conn, err := sqlite.Open(ctx, cfg.SessionDB)
	if err != nil {
		return nil, errors.Wrap(err, "open session database")
	}

	bearer := &auth.Bearer{}
	clientCfg := backend.Config{
		BaseURL:         cfg.BaseURL,
		Timeout:         cfg.HTTP.Timeout,
		UserAgent:       cfg.HTTP.UserAgent,
		BreakerFailures: cfg.Breaker.Failures,
		BreakerCooldown: cfg.Breaker.Cooldown,
		Logger:          lg,
	}
	if m != nil {
		clientCfg.TracerProvider = m.TracerProvider()
		clientCfg.MeterProvider = m.MeterProvider()
	}
	client, err := backend.New(clientCfg, bearer)
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "backend client")
	}

	session := auth.NewManager(sqlite.NewSessionStore(conn), client, bearer)
	if _, err := session.Restore(ctx); err != nil && !errors.Is(err, auth.ErrNoSession) {
		_ = conn.Close()
		return nil, errors.Wrap(err, "restore session")
	}

	monitor := health.New()
	monitor.Add("backend", cfg.Health.Timeout, health.PingCheck(client))
	monitor.Add("breaker", cfg.Health.Timeout, health.BreakerCheck(client.BreakerState), health.WithThresholds(1, 1))
	monitor.OnChange(func(s health.Status) {
		if s.Online {
			lg.Info("Dependency online", zap.String("probe", s.Name))
			return
		}
		lg.Warn("Dependency offline", zap.String("probe", s.Name), zap.Error(s.LastError))
	})

	return &App{
		Config:    cfg,
		Logger:    lg,
		Client:    client,
		Session:   session,
		Format:    f,
		Notices:   notice.NewBoard(cfg.Notice.TTL),
		Health:    monitor,
		telemetry: m,
		db:        conn,
	}, nil
}

// Close releases the local database.
func (a *App) Close() error {
	a.Health.Stop()
	if err := a.db.Close(); err != nil {
		return errors.Wrap(err, "close session database")
	}
	return nil
}

// RequireUser re-validates the session against the backend and checks the
// user against allowed. A nil allowed accepts any logged-in user.
func (a *App) RequireUser(ctx context.Context, allowed func(user.User) bool) (user.User, error) {
	if _, err := a.Session.Refresh(ctx); err != nil {
		return user.User{}, err
	}
	return a.Session.Require(allowed)
}

// Register creates an order entry register on the shared notice board.
func (a *App) Register() (*checkout.Register, error) {
	opts := checkout.Options{
		LowStockThreshold: a.Config.LowStockThreshold,
		Board:             a.Notices,
	}
	if a.telemetry != nil {
		opts.TracerProvider = a.telemetry.TracerProvider()
		opts.MeterProvider = a.telemetry.MeterProvider()
	}
	return checkout.NewRegister(a.Client.Products(), a.Client.Sales(), opts)
}

// Dashboard creates the dashboard service.
func (a *App) Dashboard() *dashboard.Service {
	return dashboard.NewService(dashboard.Config{
		LowStockThreshold: a.Config.LowStockThreshold,
		TopProducts:       a.Config.Dashboard.TopProducts,
		RecentSales:       a.Config.Dashboard.RecentSales,
	}, a.Client.Dashboard(), a.Client.Products(), a.Client.Sales())
}
