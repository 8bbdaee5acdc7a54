// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/vodplay/internal/model"
	"github.com/ManuGH/vodplay/internal/validate"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalYAML = `
backend:
  base_url: "https://api.example.com/"
`

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := writeConfig(t, minimalYAML+`
playback:
  volume: 40
  playback_rates: [1, 2]
environment:
  mode: web
`)
	cfg, err := NewLoader(path, "v1.2.3").Load()
	require.NoError(t, err)

	assert.Equal(t, "v1.2.3", cfg.Version)
	assert.Equal(t, "https://api.example.com/", cfg.Backend.BaseURL)
	assert.Equal(t, 40, cfg.Playback.Volume)
	assert.Equal(t, []float64{1, 2}, cfg.Playback.PlaybackRates)
	assert.Equal(t, "web", cfg.Environment.Mode)
	// untouched keys keep their defaults
	assert.Equal(t, 200*time.Millisecond, cfg.Playback.RateSettleDelay)
	assert.Equal(t, 100*time.Millisecond, cfg.Playback.AttachSettleDelay)
	assert.True(t, cfg.Playback.AutoNext)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, minimalYAML+`
playback:
  volume: 40
`)
	t.Setenv("VODPLAY_VOLUME", "90")
	t.Setenv("VODPLAY_AUTO_NEXT", "no")
	t.Setenv("VODPLAY_PLAYBACK_RATES", "0.5, 1.5")
	t.Setenv("VODPLAY_RATE_SETTLE_DELAY", "350ms")
	t.Setenv("VODPLAY_PLAYER_COMMAND", "/opt/mpv")

	l := NewLoader(path, "")
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, 90, cfg.Playback.Volume)
	assert.False(t, cfg.Playback.AutoNext)
	assert.Equal(t, []float64{0.5, 1.5}, cfg.Playback.PlaybackRates)
	assert.Equal(t, 350*time.Millisecond, cfg.Playback.RateSettleDelay)
	assert.Equal(t, "/opt/mpv", cfg.Player.HLS.Command)
	assert.Contains(t, l.ConsumedEnvKeys, "VODPLAY_VOLUME")
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("VODPLAY_BACKEND_URL", "https://api.example.com")
	t.Setenv("VODPLAY_VOLUME", "loud")
	t.Setenv("VODPLAY_AUTOPLAY", "maybe")

	cfg, err := NewLoader("", "").Load()
	require.NoError(t, err)
	assert.Equal(t, 70, cfg.Playback.Volume)
	assert.True(t, cfg.Playback.Autoplay)
}

func TestLoad_StrictUnknownField(t *testing.T) {
	path := writeConfig(t, minimalYAML+`
playback:
  volumee: 40
`)
	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownConfigField))
}

func TestLoad_RejectsMultipleDocuments(t *testing.T) {
	path := writeConfig(t, minimalYAML+"\n---\napi:\n  listen: \":1\"\n")
	_, err := NewLoader(path, "").Load()
	assert.ErrorContains(t, err, "multiple documents")
}

func TestLoad_RejectsNonYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	_, err := NewLoader(path, "").Load()
	assert.ErrorContains(t, err, "only YAML supported")
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	t.Setenv("VODPLAY_BACKEND_URL", "http://localhost:9000")
	cfg, err := NewLoader(writeConfig(t, ""), "").Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults().Playback.Volume, cfg.Playback.Volume)
}

func TestLoad_ExpandsDSN(t *testing.T) {
	t.Setenv("HISTORY_HOST", "db.internal")
	path := writeConfig(t, minimalYAML+`
history:
  dsn: "postgres://vod@${HISTORY_HOST}/vod"
`)
	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://vod@db.internal/vod", cfg.History.DSN)
}

func TestValidate(t *testing.T) {
	valid := func() AppConfig {
		cfg := Defaults()
		cfg.Backend.BaseURL = "https://api.example.com"
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*AppConfig)
		field  string
	}{
		{"empty base url", func(c *AppConfig) { c.Backend.BaseURL = "" }, "backend.base_url"},
		{"relative base url", func(c *AppConfig) { c.Backend.BaseURL = "/api" }, "backend.base_url"},
		{"volume too high", func(c *AppConfig) { c.Playback.Volume = 101 }, "playback.volume"},
		{"volume negative", func(c *AppConfig) { c.Playback.Volume = -1 }, "playback.volume"},
		{"zero rate", func(c *AppConfig) { c.Playback.PlaybackRate = 0 }, "playback.playback_rate"},
		{"unknown fit mode", func(c *AppConfig) { c.Playback.FitMode = "stretch" }, "playback.fit_mode"},
		{"unknown environment", func(c *AppConfig) { c.Environment.Mode = "tv" }, "environment.mode"},
		{"negative delay", func(c *AppConfig) { c.Playback.RateSettleDelay = -time.Millisecond }, "playback.rate_settle_delay"},
		{"bad listen", func(c *AppConfig) { c.API.Listen = "nowhere" }, "api.listen"},
		{"bad exporter", func(c *AppConfig) { c.Telemetry.Enabled = true; c.Telemetry.Exporter = "zipkin" }, "telemetry.exporter"},
	}

	require.NoError(t, Validate(valid()))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)
			var verr validate.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Errors()[0].Field)
		})
	}
}

func TestPlaybackEnvironment(t *testing.T) {
	cfg := Defaults()
	cfg.Environment = EnvironmentConfig{Mode: "app", ToolboxURL: "https://tools"}
	cfg.Recommend.Enabled = false

	env := cfg.PlaybackEnvironment()
	assert.Equal(t, model.EnvApp, env.Environment)
	assert.Equal(t, "https://tools", env.ToolboxURL)
	assert.False(t, env.Recommend)
	assert.Equal(t, cfg.Playback.PlaybackRates, env.PlaybackRates)

	env.PlaybackRates[0] = 9
	assert.NotEqual(t, 9.0, cfg.Playback.PlaybackRates[0])
}

func TestInitFile_TemplateLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "vodplay.yaml")
	require.NoError(t, InitFile(path, false))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, "desktop", cfg.Environment.Mode)

	err = InitFile(path, false)
	assert.ErrorIs(t, err, ErrConfigExists)
	assert.NoError(t, InitFile(path, true))
}

func TestMarshal_RoundTrips(t *testing.T) {
	cfg := Defaults()
	cfg.Backend.BaseURL = "https://api.example.com"
	data, err := Marshal(cfg)
	require.NoError(t, err)

	path := writeConfig(t, string(data))
	got, err := NewLoader(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, cfg.Playback, got.Playback)
	assert.Equal(t, cfg.Player.StopGrace, got.Player.StopGrace)
}
