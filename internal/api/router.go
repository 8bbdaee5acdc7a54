// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"errors"
	"sync"

	"github.com/ManuGH/vodplay/internal/log"
	"github.com/ManuGH/vodplay/internal/session"
)

// Navigator starts a session for a route.
type Navigator interface {
	Navigate(ctx context.Context, videoID, playID int64) error
}

// Route is the current play route.
type Route struct {
	VideoID int64 `json:"videoId"`
	PlayID  int64 `json:"playId"`
}

// SessionRouter is the session.Router of the daemon. It records the route
// and feeds auto-advance back into the bound Navigator. It is created before
// the controller and bound once the controller exists.
type SessionRouter struct {
	mu      sync.Mutex
	nav     Navigator
	current Route
}

var _ session.Router = (*SessionRouter)(nil)

// NewSessionRouter returns an unbound router.
func NewSessionRouter() *SessionRouter { return &SessionRouter{} }

// Bind sets the navigator that Replace drives.
func (r *SessionRouter) Bind(nav Navigator) {
	r.mu.Lock()
	r.nav = nav
	r.mu.Unlock()
}

// Current returns the last requested route.
func (r *SessionRouter) Current() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Replace replaces the current route and navigates to it.
func (r *SessionRouter) Replace(ctx context.Context, videoID, playID int64) {
	r.mu.Lock()
	r.current = Route{VideoID: videoID, PlayID: playID}
	nav := r.nav
	r.mu.Unlock()
	if nav == nil {
		return
	}
	if err := nav.Navigate(ctx, videoID, playID); err != nil && !errors.Is(err, session.ErrStale) {
		logger := log.WithComponentFromContext(ctx, "router")
		logger.Warn().Err(err).
			Int64(log.FieldVideoID, videoID).
			Int64(log.FieldPlayID, playID).
			Msg("route replace failed")
	}
}

// Push records a user-initiated route and navigates.
func (r *SessionRouter) Push(ctx context.Context, videoID, playID int64) error {
	r.mu.Lock()
	r.current = Route{VideoID: videoID, PlayID: playID}
	nav := r.nav
	r.mu.Unlock()
	if nav == nil {
		return errors.New("api: router not bound")
	}
	return nav.Navigate(ctx, videoID, playID)
}

// Clear forgets the current route.
func (r *SessionRouter) Clear() {
	r.mu.Lock()
	r.current = Route{}
	r.mu.Unlock()
}
