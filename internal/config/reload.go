// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/vodplay/internal/log"
	"github.com/ManuGH/vodplay/internal/model"
	"github.com/ManuGH/vodplay/internal/validate"
)

const reloadDebounce = 500 * time.Millisecond

// ConfigHolder holds configuration with atomic reloading capability.
// Sessions read a snapshot through PlaybackEnvironment; an initialized
// adapter never sees a later reload.
type ConfigHolder struct {
	mu         sync.RWMutex
	current    AppConfig
	loader     *Loader
	configPath string
	watcher    *fsnotify.Watcher
	logger     zerolog.Logger
	debounce   time.Duration

	reloadMu        sync.RWMutex
	reloadListeners []chan<- AppConfig
}

// NewConfigHolder creates a new configuration holder with initial config.
func NewConfigHolder(initial AppConfig, loader *Loader, configPath string) *ConfigHolder {
	return &ConfigHolder{
		current:    initial.Clone(),
		loader:     loader,
		configPath: configPath,
		logger:     xglog.WithComponent("config"),
		debounce:   reloadDebounce,
	}
}

// Get returns a copy of the current configuration.
func (h *ConfigHolder) Get() AppConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current.Clone()
}

// PlaybackEnvironment returns the current session snapshot.
func (h *ConfigHolder) PlaybackEnvironment() model.PlaybackEnvironmentConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current.PlaybackEnvironment()
}

// SetPlaybackRate makes rate the default for future sessions.
func (h *ConfigHolder) SetPlaybackRate(rate float64) error {
	v := validate.New()
	v.Positive("playback.playback_rate", rate)
	if err := v.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	old := h.current.Playback.PlaybackRate
	h.current.Playback.PlaybackRate = rate
	next := h.current.Clone()
	h.mu.Unlock()

	if old != rate {
		h.logger.Info().Float64("old", old).Float64("new", rate).Str("event", "config.rate_changed").Msg("config changed: playback_rate")
		h.notifyListeners(next)
	}
	return nil
}

// Reload reloads configuration from file and validates it.
// If loading fails, the old configuration is kept and an error is returned.
func (h *ConfigHolder) Reload(_ context.Context) error {
	h.logger.Info().Str("event", "config.reload_start").Msg("reloading configuration")

	newCfg, err := h.loader.Load()
	if err != nil {
		h.logger.Error().Err(err).Str("event", "config.reload_failed").Msg("failed to load new configuration")
		return fmt.Errorf("load config: %w", err)
	}

	h.mu.Lock()
	oldCfg := h.current
	h.current = newCfg.Clone()
	h.mu.Unlock()

	h.notifyListeners(newCfg)
	h.logChanges(oldCfg, newCfg)

	h.logger.Info().Str("event", "config.reload_success").Msg("configuration reloaded successfully")
	return nil
}

// StartWatcher starts watching the config file for changes.
// If configPath is empty, this is a no-op (config comes from ENV only).
func (h *ConfigHolder) StartWatcher(ctx context.Context) error {
	if h.configPath == "" {
		h.logger.Info().Str("event", "config.watcher_disabled").Msg("config file watcher disabled (using ENV-only configuration)")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Editors replace the file, so watch the directory and filter by name.
	if err := watcher.Add(filepath.Dir(h.configPath)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config file: %w", err)
	}
	h.watcher = watcher

	h.logger.Info().Str("event", "config.watcher_started").Str("path", h.configPath).Msg("watching config file for changes")
	go h.watchLoop(ctx, watcher)
	return nil
}

func (h *ConfigHolder) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()
	target := filepath.Clean(h.configPath)

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str("event", "config.watcher_stopped").Msg("config watcher stopped")
			_ = watcher.Close()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			h.logger.Debug().Str("event", "config.file_changed").Str("op", event.Op.String()).Msg("config file changed")

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(h.debounce, func() {
				if ctx.Err() != nil {
					return
				}
				if err := h.Reload(ctx); err != nil {
					h.logger.Error().Err(err).Str("event", "config.auto_reload_failed").Msg("automatic config reload failed")
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Str("event", "config.watcher_error").Msg("config watcher error")
		}
	}
}

// Stop stops the config watcher (if running).
func (h *ConfigHolder) Stop() {
	if h.watcher != nil {
		_ = h.watcher.Close()
	}
}

// RegisterListener registers a channel to receive config reload notifications.
// The caller is responsible for closing the channel.
func (h *ConfigHolder) RegisterListener(ch chan<- AppConfig) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()
	h.reloadListeners = append(h.reloadListeners, ch)
}

// notifyListeners sends the new config to all registered listeners (non-blocking).
func (h *ConfigHolder) notifyListeners(newCfg AppConfig) {
	h.reloadMu.RLock()
	defer h.reloadMu.RUnlock()

	for _, ch := range h.reloadListeners {
		select {
		case ch <- newCfg.Clone():
		default:
			h.logger.Warn().Str("event", "config.listener_skip").Msg("skipped notifying listener (channel full)")
		}
	}
}

func (h *ConfigHolder) logChanges(old, newCfg AppConfig) {
	if old.Backend.BaseURL != newCfg.Backend.BaseURL {
		h.logger.Info().Str("old", old.Backend.BaseURL).Str("new", newCfg.Backend.BaseURL).Msg("config changed: backend.base_url")
	}
	if old.Environment.Mode != newCfg.Environment.Mode {
		h.logger.Info().Str("old", old.Environment.Mode).Str("new", newCfg.Environment.Mode).Msg("config changed: environment.mode")
	}
	if old.Playback.AutoNext != newCfg.Playback.AutoNext {
		h.logger.Info().Bool("old", old.Playback.AutoNext).Bool("new", newCfg.Playback.AutoNext).Msg("config changed: playback.auto_next")
	}
	if old.Playback.PlaybackRate != newCfg.Playback.PlaybackRate {
		h.logger.Info().Float64("old", old.Playback.PlaybackRate).Float64("new", newCfg.Playback.PlaybackRate).Msg("config changed: playback.playback_rate")
	}
	if old.Playback.Volume != newCfg.Playback.Volume {
		h.logger.Info().Int("old", old.Playback.Volume).Int("new", newCfg.Playback.Volume).Msg("config changed: playback.volume")
	}
	if old.Recommend.Enabled != newCfg.Recommend.Enabled {
		h.logger.Info().Bool("old", old.Recommend.Enabled).Bool("new", newCfg.Recommend.Enabled).Msg("config changed: recommend.enabled")
	}
	if old.History.DSN != newCfg.History.DSN {
		h.logger.Warn().Msg("config changed: history.dsn (takes effect after restart)")
	}
}
