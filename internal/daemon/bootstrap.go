// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/vodplay/internal/api"
	"github.com/ManuGH/vodplay/internal/api/middleware"
	"github.com/ManuGH/vodplay/internal/cache"
	"github.com/ManuGH/vodplay/internal/catalog"
	"github.com/ManuGH/vodplay/internal/config"
	"github.com/ManuGH/vodplay/internal/gateway"
	"github.com/ManuGH/vodplay/internal/health"
	"github.com/ManuGH/vodplay/internal/history"
	xglog "github.com/ManuGH/vodplay/internal/log"
	"github.com/ManuGH/vodplay/internal/player"
	"github.com/ManuGH/vodplay/internal/resilience"
	"github.com/ManuGH/vodplay/internal/session"
	"github.com/ManuGH/vodplay/internal/telemetry"
)

// Options tune Build. Zero values select production defaults.
type Options struct {
	Version string
	// HTTPClient overrides the backend transport.
	HTTPClient *http.Client
	// Runner overrides how external players are started.
	Runner player.Runner
	// SkipTelemetry leaves the global tracer provider untouched.
	SkipTelemetry bool
}

// App is the assembled playback daemon.
type App struct {
	Holder     *config.ConfigHolder
	Client     *catalog.Client
	Store      *catalog.Store
	Cache      cache.Cache
	Categories *gateway.CategoryResolver
	Gateway    *gateway.Gateway
	History    history.Store
	Players    *player.Factory
	Shell      *session.MemoryShell
	Router     *api.SessionRouter
	Controller *session.Controller
	Health     *health.Manager
	Server     *api.Server
	Telemetry  *telemetry.Provider

	logger  zerolog.Logger
	closers []namedCloser
}

type namedCloser struct {
	name string
	fn   func(ctx context.Context) error
}

// Build wires every component from the holder's current config. On error
// everything opened so far is closed again.
func Build(ctx context.Context, holder *config.ConfigHolder, opts Options) (_ *App, err error) {
	cfg := holder.Get()
	app := &App{
		Holder: holder,
		logger: xglog.WithComponent("daemon"),
	}
	defer func() {
		if err != nil {
			_ = app.Close(context.WithoutCancel(ctx))
		}
	}()

	if !opts.SkipTelemetry {
		tp, terr := telemetry.NewProvider(ctx, telemetry.Config{
			Enabled:        cfg.Telemetry.Enabled,
			ServiceName:    "vodplay",
			ServiceVersion: opts.Version,
			Environment:    cfg.Environment.Mode,
			ExporterType:   cfg.Telemetry.Exporter,
			Endpoint:       cfg.Telemetry.Endpoint,
			SamplingRate:   cfg.Telemetry.SamplingRate,
		})
		if terr != nil {
			return nil, fmt.Errorf("telemetry: %w", terr)
		}
		app.Telemetry = tp
		app.addCloser("telemetry", tp.Shutdown)
	}

	app.Client = catalog.NewClient(catalog.Options{
		BaseURL:           cfg.Backend.BaseURL,
		Timeout:           cfg.Backend.Timeout,
		Retries:           cfg.Backend.Retries,
		RetryDelay:        cfg.Backend.RetryDelay,
		RequestsPerSecond: cfg.Backend.RequestsPerSecond,
		Burst:             cfg.Backend.Burst,
		BreakerThreshold:  cfg.Backend.BreakerThreshold,
		BreakerReset:      cfg.Backend.BreakerReset,
		UserAgent:         cfg.Backend.UserAgent,
		HTTPClient:        opts.HTTPClient,
	})
	app.Store = catalog.NewStore(app.Client, app.Client.BaseURL())

	c, err := cache.Open(ctx, cache.RedisConfig{
		Addr:            cfg.Cache.RedisAddr,
		Password:        cfg.Cache.RedisPassword,
		DB:              cfg.Cache.RedisDB,
		KeyPrefix:       cfg.Cache.KeyPrefix,
		CleanupInterval: cfg.Cache.CleanupInterval,
	}, xglog.WithComponent("cache"))
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	app.Cache = c
	app.addCloser("cache", func(context.Context) error { return c.Close() })

	store, err := history.Open(ctx, cfg.History.DSN)
	if err != nil {
		return nil, err
	}
	if store != nil {
		app.History = store
		app.addCloser("history", func(context.Context) error { return store.Close() })
	}

	app.Categories = gateway.NewCategoryResolver(app.Client, app.Cache, cfg.Recommend.CategoryTTL)
	app.Gateway = gateway.New(app.Client, gateway.Options{
		RecommendEnabled: func() bool { return holder.Get().Recommend.Enabled },
		Categories:       app.Categories,
		Details:          app.Store,
		Location:         time.Local,
	})

	app.Players = player.NewFactory(playerFactoryConfig(cfg.Player, opts.Runner))
	app.Shell = session.NewMemoryShell(session.Presentation{Theme: session.ThemeLight})
	app.Router = api.NewSessionRouter()
	app.Controller = session.NewController(session.Deps{
		Store:    app.Store,
		Players:  app.Players,
		Config:   holder.PlaybackEnvironment,
		Router:   app.Router,
		Shell:    app.Shell,
		History:  historySink(app.History, app.Client, cfg.History.Remote),
		Rates:    holder,
		Location: time.Local,
	})
	app.Router.Bind(app.Controller)

	app.Health = health.NewManager(opts.Version)
	app.Health.RegisterChecker(health.NewBreakerChecker("backend", func() resilience.State {
		return app.Client.BreakerState()
	}))
	if rc, ok := app.Cache.(*cache.RedisCache); ok {
		app.Health.RegisterChecker(health.NewPingChecker("cache", rc.HealthCheck, 0))
	}
	if app.History != nil {
		h := app.History
		app.Health.RegisterChecker(health.NewPingChecker("history", func(ctx context.Context) error {
			_, err := h.Recent(ctx, 1)
			return err
		}, 0))
	}

	var hist api.HistoryReader
	if app.History != nil {
		hist = app.History
	}
	app.Server = api.New(api.Deps{
		Controller: app.Controller,
		Gateway:    app.Gateway,
		History:    hist,
		Health:     app.Health,
		Router:     app.Router,
		Stack: middleware.StackConfig{
			EnableMetrics:  true,
			TracingService: "vodplay-api",
			EnableLogging:  true,
			RateLimit:      cfg.API.RateLimit,
		},
		Version: opts.Version,
	})

	// Category listings change under reloads of the recommend section.
	reloads := make(chan config.AppConfig, 1)
	holder.RegisterListener(reloads)
	reloadCtx, stopReloads := context.WithCancel(ctx)
	app.addCloser("reloads", func(context.Context) error { stopReloads(); return nil })
	go app.watchReloads(reloadCtx, reloads)

	app.logger.Info().
		Str("backend", app.Client.BaseURL()).
		Str("environment", cfg.Environment.Mode).
		Bool("history", app.History != nil).
		Msg("daemon assembled")
	return app, nil
}

// Manager returns a lifecycle manager for the API server that tears the
// app down on shutdown.
func (a *App) Manager(listen string, shutdownTimeout time.Duration) (*Manager, error) {
	m, err := NewManager(ManagerConfig{Listen: listen, ShutdownTimeout: shutdownTimeout}, ManagerDeps{
		Server:  a.Server,
		Session: a.Controller,
		Watcher: a.Holder,
		Logger:  a.logger,
	})
	if err != nil {
		return nil, err
	}
	m.RegisterShutdownHook("app", a.Close)
	return m, nil
}

// Close releases resources in reverse open order.
func (a *App) Close(ctx context.Context) error {
	closers := a.closers
	a.closers = nil
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", closers[i].name, err))
		}
	}
	return errors.Join(errs...)
}

func (a *App) addCloser(name string, fn func(ctx context.Context) error) {
	a.closers = append(a.closers, namedCloser{name: name, fn: fn})
}

func (a *App) watchReloads(ctx context.Context, reloads <-chan config.AppConfig) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-reloads:
			a.Categories.Invalidate(ctx)
		}
	}
}

func playerFactoryConfig(cfg config.PlayerConfig, runner player.Runner) player.FactoryConfig {
	engine := func(pc config.PlayerCommand) *player.ProcessEngine {
		return &player.ProcessEngine{
			Runner:    runner,
			Command:   pc.Command,
			Args:      pc.Args,
			IPCDir:    cfg.IPCDir,
			StopGrace: cfg.StopGrace,
		}
	}
	return player.FactoryConfig{
		Surface:       engine(cfg.Native),
		HLS:           engine(cfg.HLS),
		Standard:      engine(cfg.Standard),
		DetachTimeout: cfg.DetachTimeout,
	}
}

func historySink(store history.Store, remote history.PlayLogger, forward bool) session.HistorySink {
	var sinks history.Tee
	if store != nil {
		sinks = append(sinks, store)
	}
	if forward {
		sinks = append(sinks, history.Remote{Logger: remote})
	}
	if len(sinks) == 0 {
		return nil
	}
	return sinks
}
