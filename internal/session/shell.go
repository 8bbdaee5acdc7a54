// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"sync"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Presentation is the page-level state a session overrides while active.
type Presentation struct {
	Theme         string `json:"theme"`
	MenuCollapsed bool   `json:"menuCollapsed"`
	Fullscreen    bool   `json:"fullscreen"`
}

// Shell is the presentation collaborator. Implementations must not call back
// into the Controller.
type Shell interface {
	SetTitle(title string)
	Presentation() Presentation
	SetPresentation(p Presentation)
}

// Router accepts navigation requests for the play route.
type Router interface {
	Replace(ctx context.Context, videoID, playID int64)
}

// RouterFunc adapts a function to Router.
type RouterFunc func(ctx context.Context, videoID, playID int64)

func (f RouterFunc) Replace(ctx context.Context, videoID, playID int64) { f(ctx, videoID, playID) }

// MemoryShell keeps presentation state in memory.
type MemoryShell struct {
	mu    sync.RWMutex
	title string
	p     Presentation
}

// NewMemoryShell returns a shell starting in the given presentation.
func NewMemoryShell(initial Presentation) *MemoryShell {
	if initial.Theme == "" {
		initial.Theme = ThemeLight
	}
	return &MemoryShell{p: initial}
}

func (s *MemoryShell) SetTitle(title string) {
	s.mu.Lock()
	s.title = title
	s.mu.Unlock()
}

func (s *MemoryShell) Title() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.title
}

func (s *MemoryShell) Presentation() Presentation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p
}

func (s *MemoryShell) SetPresentation(p Presentation) {
	s.mu.Lock()
	s.p = p
	s.mu.Unlock()
}
