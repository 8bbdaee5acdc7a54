// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManuGH/vodplay/internal/model"
)

func circuit(id int64) *int64 { return &id }

func TestNextInCircuit(t *testing.T) {
	playlist := []model.PlaylistEntry{
		{ID: 1, Title: "1", CircuitID: circuit(10)},
		{ID: 4, Title: "1", CircuitID: circuit(20)},
		{ID: 2, Title: "2", CircuitID: circuit(10)},
		{ID: 5, Title: "2", CircuitID: circuit(20)},
		{ID: 3, Title: "3", CircuitID: circuit(10)},
		{ID: 6, Title: "extra"},
	}

	tests := []struct {
		name    string
		current model.PlaylistEntry
		wantID  int64
		wantOK  bool
	}{
		{"first of group", playlist[0], 2, true},
		{"middle of group", playlist[2], 3, true},
		{"last of group", playlist[4], 0, false},
		{"other group", playlist[1], 5, true},
		{"no circuit", playlist[5], 0, false},
		{"not in playlist", model.PlaylistEntry{ID: 99, CircuitID: circuit(10)}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ok := NextInCircuit(playlist, tt.current)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, next.ID)
		})
	}
}

func TestNextInCircuit_ZeroIsNoGroup(t *testing.T) {
	playlist := []model.PlaylistEntry{
		{ID: 1, Title: "1", CircuitID: circuit(0)},
		{ID: 2, Title: "2", CircuitID: circuit(0)},
	}
	_, ok := NextInCircuit(playlist, playlist[0])
	assert.False(t, ok)
}

func TestDownloadLink(t *testing.T) {
	cfg := model.PlaybackEnvironmentConfig{Environment: model.EnvWeb, ToolboxURL: "https://tools.example/"}

	link := DownloadLink(cfg, "https://cdn/a.m3u8", "Show-Ep 1")
	assert.Equal(t, "https://tools.example/video/m3u8?name=Show-Ep+1&url=https%3A%2F%2Fcdn%2Fa.m3u8", link)

	assert.Empty(t, DownloadLink(cfg, "https://cdn/a.mp4", "x"), "only segmented sources")

	cfg.Environment = model.EnvApp
	assert.Empty(t, DownloadLink(cfg, "https://cdn/a.m3u8", "x"), "not inside the app shell")

	cfg = model.PlaybackEnvironmentConfig{Environment: model.EnvDesktop}
	assert.Empty(t, DownloadLink(cfg, "https://cdn/a.m3u8", "x"), "no toolbox configured")
}

func TestMemoryShell(t *testing.T) {
	s := NewMemoryShell(Presentation{})
	assert.Equal(t, ThemeLight, s.Presentation().Theme)
	s.SetTitle("A - 1")
	s.SetPresentation(Presentation{Theme: ThemeDark, Fullscreen: true})
	assert.Equal(t, "A - 1", s.Title())
	assert.True(t, s.Presentation().Fullscreen)
}
