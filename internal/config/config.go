// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config provides configuration management for vodplay.
//
// Precedence is ENV > YAML file > defaults. The file is parsed strictly:
// unknown keys are rejected.
package config

import (
	"errors"
	"time"

	"github.com/ManuGH/vodplay/internal/model"
)

// ErrUnknownConfigField classifies strict YAML parse failures caused by unknown keys.
var ErrUnknownConfigField = errors.New("unknown config field")

// AppConfig is the complete runtime configuration.
type AppConfig struct {
	Version string `yaml:"-"`

	API         APIConfig         `yaml:"api"`
	Backend     BackendConfig     `yaml:"backend"`
	Environment EnvironmentConfig `yaml:"environment"`
	Playback    PlaybackConfig    `yaml:"playback"`
	Recommend   RecommendConfig   `yaml:"recommend"`
	Cache       CacheConfig       `yaml:"cache"`
	History     HistoryConfig     `yaml:"history"`
	Player      PlayerConfig      `yaml:"player"`
	Log         LogConfig         `yaml:"log"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
}

// APIConfig configures the local control API.
type APIConfig struct {
	Listen          string        `yaml:"listen"`
	RateLimit       int           `yaml:"rate_limit"` // requests per minute per client IP, 0 disables
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// BackendConfig configures the video backend client.
type BackendConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	Retries           int           `yaml:"retries"`
	RetryDelay        time.Duration `yaml:"retry_delay"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	BreakerThreshold  int           `yaml:"breaker_threshold"`
	BreakerReset      time.Duration `yaml:"breaker_reset"`
	UserAgent         string        `yaml:"user_agent"`
}

// EnvironmentConfig describes the host the client runs in.
type EnvironmentConfig struct {
	Mode       string `yaml:"mode"`
	ToolboxURL string `yaml:"toolbox_url"`
}

// PlaybackConfig holds the player defaults a session snapshots on start.
type PlaybackConfig struct {
	Autoplay          bool          `yaml:"autoplay"`
	PlaybackRate      float64       `yaml:"playback_rate"`
	PlaybackRates     []float64     `yaml:"playback_rates"`
	Volume            int           `yaml:"volume"`
	PiP               bool          `yaml:"pip"`
	MiniPlayer        bool          `yaml:"miniplayer"`
	FitMode           string        `yaml:"fit_mode"`
	AutoNext          bool          `yaml:"auto_next"`
	FullscreenPlay    bool          `yaml:"fullscreen_play"`
	RateSettleDelay   time.Duration `yaml:"rate_settle_delay"`
	AttachSettleDelay time.Duration `yaml:"attach_settle_delay"`
}

// RecommendConfig toggles recommendations.
type RecommendConfig struct {
	Enabled     bool          `yaml:"enabled"`
	CategoryTTL time.Duration `yaml:"category_ttl"`
}

// CacheConfig selects the category cache. An empty RedisAddr uses memory.
type CacheConfig struct {
	RedisAddr       string        `yaml:"redis_addr"`
	RedisPassword   string        `yaml:"redis_password"`
	RedisDB         int           `yaml:"redis_db"`
	KeyPrefix       string        `yaml:"key_prefix"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// HistoryConfig selects where completed plays go.
type HistoryConfig struct {
	// DSN is a postgres:// URL or a SQLite path. Empty disables the local store.
	DSN    string `yaml:"dsn"`
	Remote bool   `yaml:"remote"`
}

// PlayerCommand is an external player invocation.
type PlayerCommand struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// PlayerConfig configures the process-backed player engines.
type PlayerConfig struct {
	Native        PlayerCommand `yaml:"native"`
	HLS           PlayerCommand `yaml:"hls"`
	Standard      PlayerCommand `yaml:"standard"`
	IPCDir        string        `yaml:"ipc_dir"`
	StopGrace     time.Duration `yaml:"stop_grace"`
	DetachTimeout time.Duration `yaml:"detach_timeout"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		API: APIConfig{
			Listen:          "127.0.0.1:8088",
			RateLimit:       300,
			ShutdownTimeout: 10 * time.Second,
		},
		Backend: BackendConfig{
			Timeout:           10 * time.Second,
			Retries:           2,
			RetryDelay:        200 * time.Millisecond,
			RequestsPerSecond: 20,
			Burst:             40,
			BreakerThreshold:  5,
			BreakerReset:      30 * time.Second,
			UserAgent:         "vodplay",
		},
		Environment: EnvironmentConfig{Mode: string(model.EnvDesktop)},
		Playback: PlaybackConfig{
			Autoplay:          true,
			PlaybackRate:      1,
			PlaybackRates:     []float64{0.5, 0.75, 1, 1.25, 1.5, 2},
			Volume:            70,
			FitMode:           model.FitFixed,
			AutoNext:          true,
			RateSettleDelay:   200 * time.Millisecond,
			AttachSettleDelay: 100 * time.Millisecond,
		},
		Recommend: RecommendConfig{Enabled: true, CategoryTTL: 10 * time.Minute},
		Cache:     CacheConfig{KeyPrefix: "vodplay:", CleanupInterval: time.Minute},
		History:   HistoryConfig{DSN: "history.sqlite", Remote: true},
		Player: PlayerConfig{
			Native:        PlayerCommand{Command: "mpv"},
			HLS:           PlayerCommand{Command: "mpv"},
			Standard:      PlayerCommand{Command: "mpv"},
			StopGrace:     2 * time.Second,
			DetachTimeout: 2 * time.Second,
		},
		Log:       LogConfig{Level: "info", MaxSizeMB: 50, MaxBackups: 3},
		Telemetry: TelemetryConfig{Exporter: "grpc", Endpoint: "localhost:4317", SamplingRate: 1},
	}
}

// PlaybackEnvironment returns the snapshot a session is built from.
func (c AppConfig) PlaybackEnvironment() model.PlaybackEnvironmentConfig {
	p := c.Playback
	return model.PlaybackEnvironmentConfig{
		Environment:       model.Environment(c.Environment.Mode),
		Autoplay:          p.Autoplay,
		PlaybackRate:      p.PlaybackRate,
		PlaybackRates:     p.PlaybackRates,
		Volume:            p.Volume,
		PiP:               p.PiP,
		MiniPlayer:        p.MiniPlayer,
		FitMode:           p.FitMode,
		AutoNext:          p.AutoNext,
		FullscreenPlay:    p.FullscreenPlay,
		Recommend:         c.Recommend.Enabled,
		ToolboxURL:        c.Environment.ToolboxURL,
		RateSettleDelay:   p.RateSettleDelay,
		AttachSettleDelay: p.AttachSettleDelay,
	}.Clone()
}

// Clone returns a deep copy.
func (c AppConfig) Clone() AppConfig {
	c.Playback.PlaybackRates = append([]float64(nil), c.Playback.PlaybackRates...)
	c.Player.Native.Args = append([]string(nil), c.Player.Native.Args...)
	c.Player.HLS.Args = append([]string(nil), c.Player.HLS.Args...)
	c.Player.Standard.Args = append([]string(nil), c.Player.Standard.Args...)
	return c
}
