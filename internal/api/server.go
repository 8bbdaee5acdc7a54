// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api serves the local control surface of the playback daemon.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/vodplay/internal/api/middleware"
	"github.com/ManuGH/vodplay/internal/gateway"
	"github.com/ManuGH/vodplay/internal/health"
	"github.com/ManuGH/vodplay/internal/log"
	"github.com/ManuGH/vodplay/internal/model"
	"github.com/ManuGH/vodplay/internal/session"
)

// Controller is the session surface the API drives.
type Controller interface {
	Navigator
	Exit(ctx context.Context) error
	SetPlaybackRate(ctx context.Context, rate float64) error
	Snapshot() session.Snapshot
}

// Gateway is the catalog surface the API exposes.
type Gateway interface {
	DetailPage(ctx context.Context, id int64) (gateway.DetailPage, error)
	FetchRecommended(ctx context.Context, videoID int64) ([]model.Video, error)
	Home(ctx context.Context, page int) (model.Page[model.Video], error)
	Category(ctx context.Context, category string, page int) (model.Page[model.Video], error)
	Search(ctx context.Context, keywords string, page int) (model.Page[model.Video], error)
	Categories(ctx context.Context) ([]model.Category, error)
	SubmitReport(ctx context.Context, text string, videoID, entryID int64) (model.Ack, error)
}

// HistoryReader lists recent plays.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]model.PlayRecord, error)
}

// Deps are the collaborators of a Server. History and Health may be nil.
type Deps struct {
	Controller Controller
	Gateway    Gateway
	History    HistoryReader
	Health     *health.Manager
	Router     *SessionRouter
	Stack      middleware.StackConfig
	Version    string
}

// Server is the control API.
type Server struct {
	deps    Deps
	handler http.Handler

	mu  sync.Mutex
	srv *http.Server
}

// New builds the server and its routes.
func New(deps Deps) *Server {
	if deps.Health == nil {
		deps.Health = health.NewManager(deps.Version)
	}
	if deps.Router == nil {
		deps.Router = NewSessionRouter()
		deps.Router.Bind(deps.Controller)
	}
	s := &Server{deps: deps}
	s.handler = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := middleware.NewRouter(s.deps.Stack)

	r.Get("/healthz", s.deps.Health.ServeHealth)
	r.Get("/readyz", s.deps.Health.ServeReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/home", s.handleHome)
		r.Get("/categories", s.handleCategories)
		r.Get("/category/{category}", s.handleCategory)
		r.Get("/search", s.handleSearch)

		r.Get("/videos/{id}", s.handleVideo)
		r.Get("/videos/{id}/recommend", s.handleRecommend)

		r.Get("/session", s.handleGetSession)
		r.Put("/session", s.handlePutSession)
		r.Delete("/session", s.handleDeleteSession)
		r.Put("/session/rate", s.handleSetRate)

		r.Post("/report", s.handleReport)
		r.Get("/history", s.handleHistory)
	})
	return r
}

// Serve serves on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		return fmt.Errorf("api: server already started")
	}
	s.srv = srv
	s.mu.Unlock()

	logger := log.WithComponent("api")
	logger.Info().Str("addr", ln.Addr().String()).Msg("control API listening")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on addr and serves until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("api: listen %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	logger := log.WithComponent("api")
	logger.Info().Msg("shutting down control API")
	return srv.Shutdown(ctx)
}
