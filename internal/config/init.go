// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// ErrConfigExists is returned by InitFile when the target already exists.
var ErrConfigExists = errors.New("config file already exists")

const template = `# vodplay configuration
# Precedence: VODPLAY_* environment > this file > built-in defaults.
# Unknown keys are rejected.

api:
  listen: "127.0.0.1:8088"
  rate_limit: 300          # requests per minute per client IP, 0 disables
  shutdown_timeout: 10s

backend:
  base_url: "https://video.example.com/api/"
  timeout: 10s
  retries: 2
  requests_per_second: 20

environment:
  mode: desktop            # web | app | desktop
  toolbox_url: ""          # enables the download link for .m3u8 sources

playback:
  autoplay: true
  playback_rate: 1
  playback_rates: [0.5, 0.75, 1, 1.25, 1.5, 2]
  volume: 70               # 0-100
  pip: false
  miniplayer: false
  fit_mode: fixed          # fixed | fixWidth | fixHeight
  auto_next: true
  fullscreen_play: false
  rate_settle_delay: 200ms
  attach_settle_delay: 100ms

recommend:
  enabled: true
  category_ttl: 10m

cache:
  redis_addr: ""           # empty uses the in-memory cache

history:
  dsn: "history.sqlite"    # SQLite path or postgres:// URL, empty disables
  remote: true

player:
  native:
    command: mpv
  hls:
    command: mpv
  standard:
    command: mpv

log:
  level: info
  file: ""

telemetry:
  enabled: false
  exporter: grpc
  endpoint: "localhost:4317"
`

// InitFile writes the commented template to path atomically.
// An existing file is only replaced when force is set.
func InitFile(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", path, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return writeAtomic(path, []byte(template))
}

// Marshal renders cfg as YAML.
func Marshal(cfg AppConfig) ([]byte, error) {
	return yaml.Marshal(cfg)
}

func writeAtomic(path string, data []byte) error {
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o600))
	if err != nil {
		return fmt.Errorf("create pending config file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write config data: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace config file: %w", err)
	}
	return nil
}
