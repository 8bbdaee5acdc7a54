// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHolder(t *testing.T, body string) (*ConfigHolder, string) {
	t.Helper()
	path := writeConfig(t, body)
	loader := NewLoader(path, "test")
	cfg, err := loader.Load()
	require.NoError(t, err)
	return NewConfigHolder(cfg, loader, path), path
}

func TestConfigHolder_Reload(t *testing.T) {
	holder, path := newHolder(t, minimalYAML)
	assert.Equal(t, 70, holder.Get().Playback.Volume)

	ch := make(chan AppConfig, 1)
	holder.RegisterListener(ch)

	require.NoError(t, os.WriteFile(path, []byte(minimalYAML+"playback:\n  volume: 20\n"), 0o600))
	require.NoError(t, holder.Reload(context.Background()))

	assert.Equal(t, 20, holder.Get().Playback.Volume)
	assert.Equal(t, 20, holder.PlaybackEnvironment().Volume)
	select {
	case got := <-ch:
		assert.Equal(t, 20, got.Playback.Volume)
	default:
		t.Fatal("listener not notified")
	}
}

func TestConfigHolder_ReloadFailureKeepsOld(t *testing.T) {
	holder, path := newHolder(t, minimalYAML)

	require.NoError(t, os.WriteFile(path, []byte(minimalYAML+"playback:\n  volume: 500\n"), 0o600))
	assert.Error(t, holder.Reload(context.Background()))
	assert.Equal(t, 70, holder.Get().Playback.Volume)

	require.NoError(t, os.WriteFile(path, []byte(minimalYAML+"bogus: 1\n"), 0o600))
	assert.ErrorIs(t, holder.Reload(context.Background()), ErrUnknownConfigField)
}

func TestConfigHolder_SetPlaybackRate(t *testing.T) {
	holder, _ := newHolder(t, minimalYAML)
	ch := make(chan AppConfig, 1)
	holder.RegisterListener(ch)

	before := holder.PlaybackEnvironment()
	require.NoError(t, holder.SetPlaybackRate(1.5))
	assert.Equal(t, 1.5, holder.PlaybackEnvironment().PlaybackRate)
	assert.Equal(t, 1.0, before.PlaybackRate, "earlier snapshots are unaffected")
	assert.Len(t, ch, 1)

	assert.Error(t, holder.SetPlaybackRate(0))
	assert.Equal(t, 1.5, holder.PlaybackEnvironment().PlaybackRate)
}

func TestConfigHolder_ListenerFullDoesNotBlock(t *testing.T) {
	holder, _ := newHolder(t, minimalYAML)
	ch := make(chan AppConfig)
	holder.RegisterListener(ch)

	done := make(chan struct{})
	go func() {
		_ = holder.SetPlaybackRate(2)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notify blocked on a full listener")
	}
}

func TestConfigHolder_StartWatcherWithoutPath(t *testing.T) {
	holder := NewConfigHolder(Defaults(), NewLoader("", ""), "")
	require.NoError(t, holder.StartWatcher(context.Background()))
	holder.Stop()
}

func TestConfigHolder_WatcherReloads(t *testing.T) {
	holder, path := newHolder(t, minimalYAML)
	holder.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, holder.StartWatcher(ctx))

	require.NoError(t, os.WriteFile(path, []byte(minimalYAML+"playback:\n  volume: 33\n"), 0o600))
	assert.Eventually(t, func() bool {
		return holder.Get().Playback.Volume == 33
	}, 5*time.Second, 20*time.Millisecond)
}
