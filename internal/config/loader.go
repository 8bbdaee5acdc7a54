// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the config file path, which may be empty.
func (l *Loader) Path() string { return l.configPath }

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envFloatList(key string, defaultVal []float64) []float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloatList(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults, then validates.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnv(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes the YAML file over cfg with STRICT parsing.
// Unknown fields cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "not found in type") {
			return fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}

	cfg.History.DSN = expandEnv(cfg.History.DSN)
	cfg.Cache.RedisPassword = expandEnv(cfg.Cache.RedisPassword)
	return nil
}

func (l *Loader) mergeEnv(cfg *AppConfig) {
	p := EnvPrefix

	cfg.API.Listen = l.envString(p+"LISTEN", cfg.API.Listen)
	cfg.API.RateLimit = l.envInt(p+"RATE_LIMIT", cfg.API.RateLimit)
	cfg.API.ShutdownTimeout = l.envDuration(p+"SHUTDOWN_TIMEOUT", cfg.API.ShutdownTimeout)

	cfg.Backend.BaseURL = l.envString(p+"BACKEND_URL", cfg.Backend.BaseURL)
	cfg.Backend.Timeout = l.envDuration(p+"BACKEND_TIMEOUT", cfg.Backend.Timeout)
	cfg.Backend.Retries = l.envInt(p+"BACKEND_RETRIES", cfg.Backend.Retries)
	cfg.Backend.RequestsPerSecond = l.envFloat(p+"BACKEND_RPS", cfg.Backend.RequestsPerSecond)
	cfg.Backend.BreakerThreshold = l.envInt(p+"BACKEND_BREAKER_THRESHOLD", cfg.Backend.BreakerThreshold)

	cfg.Environment.Mode = l.envString(p+"ENVIRONMENT", cfg.Environment.Mode)
	cfg.Environment.ToolboxURL = l.envString(p+"TOOLBOX_URL", cfg.Environment.ToolboxURL)

	pb := &cfg.Playback
	pb.Autoplay = l.envBool(p+"AUTOPLAY", pb.Autoplay)
	pb.PlaybackRate = l.envFloat(p+"PLAYBACK_RATE", pb.PlaybackRate)
	pb.PlaybackRates = l.envFloatList(p+"PLAYBACK_RATES", pb.PlaybackRates)
	pb.Volume = l.envInt(p+"VOLUME", pb.Volume)
	pb.PiP = l.envBool(p+"PIP", pb.PiP)
	pb.MiniPlayer = l.envBool(p+"MINIPLAYER", pb.MiniPlayer)
	pb.FitMode = l.envString(p+"FIT_MODE", pb.FitMode)
	pb.AutoNext = l.envBool(p+"AUTO_NEXT", pb.AutoNext)
	pb.FullscreenPlay = l.envBool(p+"FULLSCREEN_PLAY", pb.FullscreenPlay)
	pb.RateSettleDelay = l.envDuration(p+"RATE_SETTLE_DELAY", pb.RateSettleDelay)
	pb.AttachSettleDelay = l.envDuration(p+"ATTACH_SETTLE_DELAY", pb.AttachSettleDelay)

	cfg.Recommend.Enabled = l.envBool(p+"RECOMMEND", cfg.Recommend.Enabled)
	cfg.Recommend.CategoryTTL = l.envDuration(p+"CATEGORY_TTL", cfg.Recommend.CategoryTTL)

	cfg.Cache.RedisAddr = l.envString(p+"REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = l.envString(p+"REDIS_PASSWORD", cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = l.envInt(p+"REDIS_DB", cfg.Cache.RedisDB)

	cfg.History.DSN = l.envString(p+"HISTORY_DSN", cfg.History.DSN)
	cfg.History.Remote = l.envBool(p+"HISTORY_REMOTE", cfg.History.Remote)

	cfg.Player.IPCDir = l.envString(p+"PLAYER_IPC_DIR", cfg.Player.IPCDir)
	if cmd := l.envString(p+"PLAYER_COMMAND", ""); cmd != "" {
		cfg.Player.Native.Command = cmd
		cfg.Player.HLS.Command = cmd
		cfg.Player.Standard.Command = cmd
	}

	cfg.Log.Level = l.envString(p+"LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = l.envString(p+"LOG_FILE", cfg.Log.File)

	cfg.Telemetry.Enabled = l.envBool(p+"TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString(p+"OTLP_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString(p+"OTLP_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat(p+"TRACE_SAMPLING", cfg.Telemetry.SamplingRate)
}
