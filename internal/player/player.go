// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package player abstracts over the playback backends a session can drive:
// a host-provided native surface, or an in-page engine chosen by source format.
package player

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/ManuGH/vodplay/internal/model"
)

var (
	ErrDestroyed          = errors.New("player: adapter destroyed")
	ErrAlreadyInitialized = errors.New("player: adapter already initialized")
	ErrNotInitialized     = errors.New("player: adapter not initialized")
	ErrUnsupported        = errors.New("player: no backend for variant")
	ErrInvalidRate        = errors.New("player: playback rate must be positive")
)

// Variant identifies a concrete playback backend.
type Variant string

const (
	VariantNative   Variant = "native"
	VariantHLS      Variant = "hls"
	VariantStandard Variant = "standard"
)

// Select maps a source URL and environment to the backend that plays it.
func Select(src string, env model.Environment) Variant {
	if env == model.EnvApp {
		return VariantNative
	}
	if IsSegmented(src) {
		return VariantHLS
	}
	return VariantStandard
}

// IsSegmented reports whether src points at an m3u8 manifest.
func IsSegmented(src string) bool {
	return strings.Contains(src, ".m3u8")
}

// Options is the per-instance snapshot handed to a backend on initialize.
type Options struct {
	Autoplay      bool
	PlaybackRate  float64
	PlaybackRates []float64
	Volume        float64 // 0-1
	PiP           bool
	MiniPlayer    bool
	FitMode       string
	Poster        string
	Title         string
}

// OptionsFrom snapshots the playback configuration for one instance.
func OptionsFrom(cfg model.PlaybackEnvironmentConfig, poster, title string) Options {
	volume := float64(cfg.Volume) / 100
	volume = min(max(volume, 0), 1)
	rate := cfg.PlaybackRate
	if rate <= 0 {
		rate = 1
	}
	return Options{
		Autoplay:      cfg.Autoplay,
		PlaybackRate:  rate,
		PlaybackRates: slices.Clone(cfg.PlaybackRates),
		Volume:        volume,
		PiP:           cfg.PiP,
		MiniPlayer:    cfg.MiniPlayer,
		FitMode:       cfg.FitMode,
		Poster:        poster,
		Title:         title,
	}
}

// Adapter is the lifecycle contract shared by all backends.
//
// Complete fires at most once, after a clean play-through. Ended fires on a
// terminal stop other than teardown. Failed fires on a playback error instead
// of either. No callback runs after Destroy has returned.
type Adapter interface {
	Variant() Variant
	Initialize(ctx context.Context, src string, opts Options) error
	// Destroy is idempotent and safe before Initialize. It returns once the
	// backend has acknowledged teardown.
	Destroy() error
	SetPlaybackRate(rate float64) error
	OnComplete(fn func())
	OnEnded(fn func())
	OnFailed(fn func(error))
}

// EventKind classifies backend events.
type EventKind int

const (
	EventComplete EventKind = iota + 1
	EventEnded
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventComplete:
		return "complete"
	case EventEnded:
		return "ended"
	case EventError:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is emitted by a running backend instance.
type Event struct {
	Kind EventKind
	Err  error
}

// Instance is one running backend player.
type Instance interface {
	// Events is closed when the instance stops emitting.
	Events() <-chan Event
	SetPlaybackRate(rate float64) error
	Close() error
}

// Detacher is implemented by instances that signal when they have released
// the page surface after Close.
type Detacher interface {
	Detached() <-chan struct{}
}

// Engine attaches an in-page player to the shared page surface.
type Engine interface {
	Attach(ctx context.Context, src string, opts Options) (Instance, error)
}

// Surface is the host-provided native video surface.
type Surface interface {
	Open(ctx context.Context, src string, opts Options) (Instance, error)
}
