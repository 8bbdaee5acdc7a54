// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import (
	"slices"
	"time"
)

// Environment identifies where the client runs.
type Environment string

const (
	// EnvWeb is a plain browser page.
	EnvWeb Environment = "web"
	// EnvApp is the native app shell with an embedded native video surface.
	EnvApp Environment = "app"
	// EnvDesktop is the desktop shell, which can toggle fullscreen.
	EnvDesktop Environment = "desktop"
)

// Valid reports whether e is a known environment.
func (e Environment) Valid() bool {
	switch e {
	case EnvWeb, EnvApp, EnvDesktop:
		return true
	}
	return false
}

// Fit modes accepted by in-page players.
const (
	FitFixed     = "fixed"
	FitFixWidth  = "fixWidth"
	FitFixHeight = "fixHeight"
)

// PlaybackEnvironmentConfig is the read-only configuration snapshot a session
// is built from. Later config changes never reach an initialized adapter.
type PlaybackEnvironmentConfig struct {
	Environment    Environment
	Autoplay       bool
	PlaybackRate   float64
	PlaybackRates  []float64
	Volume         int // 0-100
	PiP            bool
	MiniPlayer     bool
	FitMode        string
	AutoNext       bool
	FullscreenPlay bool
	Recommend      bool
	ToolboxURL     string

	RateSettleDelay   time.Duration
	AttachSettleDelay time.Duration
}

// Clone returns a copy that shares no slices with c.
func (c PlaybackEnvironmentConfig) Clone() PlaybackEnvironmentConfig {
	c.PlaybackRates = slices.Clone(c.PlaybackRates)
	return c
}
