// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package daemon assembles the playback daemon and runs its lifecycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrMissingServer is returned when a manager is created without a server.
	ErrMissingServer = errors.New("API server is required")

	// ErrManagerNotStarted is returned when trying to shutdown a manager that hasn't started
	ErrManagerNotStarted = errors.New("manager not started")

	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("manager already started")
)

// ShutdownHook is a function that performs cleanup during graceful shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

// Server is the HTTP surface the manager runs.
type Server interface {
	Serve(ln net.Listener) error
	Shutdown(ctx context.Context) error
}

// Session is the playback session torn down before anything else on shutdown.
type Session interface {
	Exit(ctx context.Context) error
}

// Watcher is a background config watcher.
type Watcher interface {
	StartWatcher(ctx context.Context) error
	Stop()
}

// ManagerConfig configures the listener and the shutdown budget.
type ManagerConfig struct {
	Listen          string
	ShutdownTimeout time.Duration
}

// ManagerDeps are the runtime parts a Manager drives. Session and Watcher may be nil.
type ManagerDeps struct {
	Server  Server
	Session Session
	Watcher Watcher
	Logger  zerolog.Logger
}

// Manager manages the daemon lifecycle: starting servers, handling shutdown.
type Manager struct {
	cfg  ManagerConfig
	deps ManagerDeps

	shutdownHooks []namedHook

	mu       sync.Mutex
	started  bool
	stopping bool
	addr     net.Addr
	ready    chan struct{}

	logger zerolog.Logger
}

type namedHook struct {
	name string
	hook ShutdownHook
}

// NewManager creates a new daemon manager.
func NewManager(cfg ManagerConfig, deps ManagerDeps) (*Manager, error) {
	if deps.Server == nil {
		return nil, ErrMissingServer
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return &Manager{
		cfg:    cfg,
		deps:   deps,
		ready:  make(chan struct{}),
		logger: deps.Logger.With().Str("component", "manager").Logger(),
	}, nil
}

// Ready is closed once the API listener is bound.
func (m *Manager) Ready() <-chan struct{} { return m.ready }

// Addr returns the bound listener address, or nil before Ready.
func (m *Manager) Addr() net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addr
}

// Start binds the listener, starts the config watcher and serves until ctx
// is cancelled or the server fails. It then shuts everything down.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	m.mu.Unlock()

	ln, err := net.Listen("tcp", m.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", m.cfg.Listen, err)
	}
	m.mu.Lock()
	m.addr = ln.Addr()
	m.mu.Unlock()

	m.logger.Info().
		Str("listen", ln.Addr().String()).
		Dur("shutdown_timeout", m.cfg.ShutdownTimeout).
		Msg("starting daemon manager")

	if m.deps.Watcher != nil {
		if err := m.deps.Watcher.StartWatcher(ctx); err != nil {
			m.logger.Warn().Err(err).Msg("config watcher unavailable, hot reload disabled")
		}
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- m.deps.Server.Serve(ln)
	}()
	close(m.ready)

	var serveErr error
	select {
	case serveErr = <-errChan:
		if serveErr != nil {
			m.logger.Error().Err(serveErr).Msg("server error, initiating shutdown")
		}
	case <-ctx.Done():
		m.logger.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.ShutdownTimeout)
	defer cancel()
	if err := m.Shutdown(shutdownCtx); err != nil {
		return errors.Join(serveErr, err)
	}
	return serveErr
}

// Shutdown exits the session, stops the server and runs the hooks.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	hooks := append([]namedHook(nil), m.shutdownHooks...)
	m.mu.Unlock()

	m.logger.Info().Msg("shutting down daemon manager")
	var errs []error

	// The player goes first so no external process outlives the daemon.
	if m.deps.Session != nil {
		if err := m.deps.Session.Exit(ctx); err != nil {
			errs = append(errs, fmt.Errorf("session exit: %w", err))
		}
	}
	if m.deps.Watcher != nil {
		m.deps.Watcher.Stop()
	}
	if err := m.deps.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("API server shutdown: %w", err))
	}

	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]
		hookStart := time.Now()
		if err := hook.hook(ctx); err != nil {
			m.logger.Error().Err(err).Str("hook", hook.name).Dur("duration", time.Since(hookStart)).Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", hook.name, err))
			continue
		}
		m.logger.Debug().Str("hook", hook.name).Dur("duration", time.Since(hookStart)).Msg("shutdown hook completed")
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	m.logger.Info().Msg("daemon manager stopped cleanly")
	return nil
}

// RegisterShutdownHook registers a cleanup function to be called during shutdown.
func (m *Manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownHooks = append(m.shutdownHooks, namedHook{name: name, hook: hook})
}
