// Package bot wires the fuel bot domain into the Telegram runtime.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/m3rciful/fuelbot/core/bootstrap"
	coreconfig "github.com/m3rciful/fuelbot/core/config"
	"github.com/m3rciful/fuelbot/core/logger"
	coretelegram "github.com/m3rciful/fuelbot/core/telegram"
	"github.com/m3rciful/fuelbot/core/telegram/state"
	"github.com/m3rciful/fuelbot/internal/conversation"
	"github.com/m3rciful/fuelbot/internal/menu"
	"github.com/m3rciful/fuelbot/internal/metrics"
	"github.com/m3rciful/fuelbot/internal/storage"
	"github.com/m3rciful/fuelbot/internal/storage/memory"
	"github.com/m3rciful/fuelbot/internal/storage/sqlstore"
)

const pingTimeout = 3 * time.Second

// App holds the wired services of a running bot.
type App struct {
	cfg       *coreconfig.Config
	db        *sqlx.DB
	sessions  state.Manager
	closeSess func() error
	machine   *conversation.Machine
	presenter *menu.Presenter
	recorder  *metrics.Recorder
	registry  *prometheus.Registry
	ops       *metrics.Server
}

// Options let tests replace infrastructure; zero values use the configured backends.
type Options struct {
	Bootstrap bootstrap.Options
	Sessions  state.Manager
	Clock     func() time.Time
}

// Bootstrap builds the App from configuration.
func Bootstrap(cfg *coreconfig.Config) (*App, error) {
	return New(cfg, Options{})
}

// New builds the App. Storage comes from the database section, sessions from the state section.
func New(cfg *coreconfig.Config, opts Options) (*App, error) {
	bopts := opts.Bootstrap
	bopts.Config = cfg
	res, err := bootstrap.Run(bopts)
	if err != nil {
		return nil, err
	}

	app := &App{cfg: cfg, db: res.DB, registry: prometheus.NewRegistry()}
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if app.recorder, err = metrics.New(app.registry); err != nil {
		return nil, fmt.Errorf("bot: metrics: %w", err)
	}

	settings, trips := app.stores()

	app.sessions = opts.Sessions
	if app.sessions == nil {
		if app.sessions, app.closeSess, err = newSessions(cfg.State); err != nil {
			return nil, err
		}
	}

	texts := conversation.DefaultTexts()
	app.machine = conversation.New(conversation.Deps{
		Settings: settings,
		Trips:    trips,
		Sessions: app.sessions,
		Clock:    opts.Clock,
		Observer: app.recorder,
		Texts:    texts,
	})
	app.presenter = menu.New(app.machine, settings, trips, texts, app.recorder)

	if listen := cfg.Metrics.Listen; listen != "" {
		app.ops = metrics.NewServer(listen, metrics.NewHandler(app.registry, app.health))
	}
	return app, nil
}

func (a *App) stores() (storage.SettingsStore, storage.TripStore) {
	if a.db != nil {
		s := sqlstore.New(a.db)
		return s, s
	}
	logger.Warn(logger.Background(), logger.CompStore, "store.memory",
		slog.String("driver", coreconfig.DriverMemory),
	)
	s := memory.New()
	return s, s
}

func newSessions(cfg coreconfig.StateConfig) (state.Manager, func() error, error) {
	if cfg.Driver != coreconfig.DriverRedis {
		return state.NewMemoryManager(), nil, nil
	}
	m := state.NewRedisManager(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, state.WithTTL(cfg.TTL))
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := m.Ping(ctx); err != nil {
		_ = m.Close()
		return nil, nil, fmt.Errorf("bot: redis sessions: %w", err)
	}
	logger.Info(ctx, logger.CompState, "state.connected",
		slog.String("driver", coreconfig.DriverRedis),
		slog.Duration("ttl", cfg.TTL),
	)
	return m, m.Close, nil
}

// health pings the database and the session backend.
func (a *App) health(ctx context.Context) error {
	if a.db != nil {
		if err := a.db.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if p, ok := a.sessions.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("sessions: %w", err)
		}
	}
	return nil
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	h := &handlers{machine: a.machine, presenter: a.presenter, texts: a.machine.Texts()}
	h.register(reg)

	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg, nil, a.recorder),
		Routes:      h.routes(reg),
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(context.Context, coretelegram.Runtime) error {
	if a.ops == nil {
		return nil
	}
	return a.ops.Start()
}

func (a *App) onStop(ctx context.Context, _ coretelegram.Runtime) error {
	return a.Close(ctx)
}

// Close stops the ops server and releases storage and sessions.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.ops != nil {
		if err := a.ops.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("ops server: %w", err))
		}
	}
	if a.closeSess != nil {
		if err := a.closeSess(); err != nil {
			errs = append(errs, fmt.Errorf("sessions: %w", err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	return errors.Join(errs...)
}
