// Package app composes the client with fx: providers for every component
// and lifecycle hooks for startup and teardown.
package app

import (
	"context"
	"errors"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/dreyes/charla/internal/api"
	"github.com/dreyes/charla/internal/bus"
	"github.com/dreyes/charla/internal/config"
	"github.com/dreyes/charla/internal/directory"
	"github.com/dreyes/charla/internal/logging"
	"github.com/dreyes/charla/internal/notify"
	"github.com/dreyes/charla/internal/presence"
	"github.com/dreyes/charla/internal/profile"
	"github.com/dreyes/charla/internal/session"
	"github.com/dreyes/charla/internal/store"
	intsync "github.com/dreyes/charla/internal/sync"
	"github.com/dreyes/charla/internal/tui"
)

// Params holds the resolved profile passed to the fx module.
type Params struct {
	Profile string
}

// Module returns the fx module for the TUI client.
func Module(p Params) fx.Option {
	return fx.Module("charla",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStore,
			provideClient,
			provideSessionStore,
			provideDirectory,
			provideController,
			provideHeartbeat,
			provideNotifier,
			provideApp,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig() (*config.Config, error) {
	cfg, err := config.Load(profile.ConfigPath())
	if errors.Is(err, os.ErrNotExist) {
		// First run: seed a config the user can edit.
		cfg = &config.Config{
			ServerURL:     "http://localhost:5000",
			Notifications: true,
		}
		if err := config.Save(profile.ConfigPath(), cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return cfg, err
}

func provideLogger(p Params) (*zap.Logger, error) {
	if err := profile.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	return logging.New(profile.LogPath(p.Profile), p.Profile)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := profile.CacheDBPath(p.Profile)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	}
	logger.Info("cache initialized", zap.String("path", dbPath))
	return db, nil
}

func provideClient(cfg *config.Config) (*api.Client, error) {
	return api.New(cfg.ServerURL)
}

func provideSessionStore(db *store.DB, client *api.Client, logger *zap.Logger) *session.Store {
	return session.NewStore(db, client, logger)
}

func provideDirectory(client *api.Client, db *store.DB, b *bus.Bus, logger *zap.Logger) *directory.Directory {
	return directory.New(client, db, b, logger)
}

func provideController(cfg *config.Config, client *api.Client, sessions *session.Store, dir *directory.Directory, db *store.DB, b *bus.Bus, logger *zap.Logger) *intsync.Controller {
	return intsync.NewController(client, sessions, dir, db, b, logger, cfg.PollInterval())
}

func provideHeartbeat(cfg *config.Config, client *api.Client, b *bus.Bus, logger *zap.Logger) *presence.Heartbeat {
	return presence.NewHeartbeat(client, b, logger, cfg.PresenceInterval())
}

func provideNotifier(cfg *config.Config, b *bus.Bus, logger *zap.Logger) *notify.Sink {
	return notify.New(b, logger, cfg.Notifications)
}

func provideApp(p Params, cfg *config.Config, client *api.Client, ctrl *intsync.Controller, dir *directory.Directory, hb *presence.Heartbeat, b *bus.Bus, logger *zap.Logger) *tui.App {
	return tui.NewApp(tui.Params{
		Profile:   p.Profile,
		Config:    cfg,
		Client:    client,
		Ctrl:      ctrl,
		Dir:       dir,
		Heartbeat: hb,
		Bus:       b,
		Logger:    logger,
	})
}

func registerLifecycle(lc fx.Lifecycle, shutdowner fx.Shutdowner, a *tui.App, sink *notify.Sink, hb *presence.Heartbeat, ctrl *intsync.Controller, db *store.DB, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			sink.Start(context.Background())

			// The TUI owns the terminal until the user quits; login, warm
			// start and session restore run inside App.Run.
			go func() {
				if err := a.Run(); err != nil {
					logger.Error("tui exited with error", zap.Error(err))
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			a.Stop()
			// Stop also fires the final fire-and-forget logout.
			hb.Stop()
			if err := ctrl.Clear(ctx); err != nil {
				logger.Warn("session clear on shutdown failed", zap.Error(err))
			}
			sink.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("cache close failed", zap.Error(err))
			}
			logger.Info("client stopped")
			return nil
		},
	})
}
