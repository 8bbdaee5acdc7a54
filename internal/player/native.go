// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	xglog "github.com/ManuGH/vodplay/internal/log"
	"github.com/ManuGH/vodplay/internal/metrics"
	"github.com/rs/zerolog"
)

type adapterState int

const (
	stateIdle adapterState = iota
	stateAttaching
	stateActive
	stateDestroyed
)

// NativeAdapter drives the host video surface of the app shell.
//
// The surface ignores a rate set while it is still opening, so the configured
// rate is applied once the settle delay has passed.
type NativeAdapter struct {
	surface Surface
	settle  time.Duration
	live    *liveCounter
	logger  zerolog.Logger
	events  *dispatcher

	mu          sync.Mutex
	state       adapterState
	inst        Instance
	attached    chan struct{} // closed once an in-flight Open has been settled
	rateTimer   *time.Timer
	settled     bool
	pendingRate float64
}

// NewNativeAdapter builds an adapter over surface. A zero settle applies the
// rate right after open.
func NewNativeAdapter(surface Surface, settle time.Duration) *NativeAdapter {
	return newNativeAdapter(surface, settle, nil)
}

func newNativeAdapter(surface Surface, settle time.Duration, live *liveCounter) *NativeAdapter {
	return &NativeAdapter{
		surface: surface,
		settle:  settle,
		live:    live,
		logger:  xglog.WithComponent("player").With().Str(xglog.FieldVariant, string(VariantNative)).Logger(),
		events:  newDispatcher(VariantNative),
	}
}

func (a *NativeAdapter) Variant() Variant { return VariantNative }

func (a *NativeAdapter) OnComplete(fn func())    { a.events.addComplete(fn) }
func (a *NativeAdapter) OnEnded(fn func())       { a.events.addEnded(fn) }
func (a *NativeAdapter) OnFailed(fn func(error)) { a.events.addFailed(fn) }

func (a *NativeAdapter) Initialize(ctx context.Context, src string, opts Options) error {
	a.mu.Lock()
	switch a.state {
	case stateDestroyed:
		a.mu.Unlock()
		return ErrDestroyed
	case stateAttaching, stateActive:
		a.mu.Unlock()
		return ErrAlreadyInitialized
	}
	if a.surface == nil {
		a.mu.Unlock()
		return ErrUnsupported
	}
	a.state = stateAttaching
	attached := make(chan struct{})
	a.attached = attached
	a.mu.Unlock()
	defer close(attached)

	inst, err := a.surface.Open(ctx, src, opts)

	a.mu.Lock()
	if err != nil {
		if a.state == stateAttaching {
			a.state = stateIdle
		}
		a.mu.Unlock()
		metrics.RecordAdapterInit(string(VariantNative), "error")
		return fmt.Errorf("player: open native surface: %w", err)
	}
	if a.state == stateDestroyed {
		a.mu.Unlock()
		_ = inst.Close()
		metrics.RecordAdapterInit(string(VariantNative), "aborted")
		return ErrDestroyed
	}
	a.inst = inst
	a.state = stateActive
	a.pendingRate = opts.PlaybackRate
	a.rateTimer = time.AfterFunc(a.settle, a.applySettledRate)
	a.mu.Unlock()

	a.live.inc()
	metrics.RecordAdapterInit(string(VariantNative), "ok")
	go a.events.run(inst.Events())
	return nil
}

func (a *NativeAdapter) applySettledRate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != stateActive {
		return
	}
	a.settled = true
	if a.pendingRate <= 0 {
		return
	}
	if err := a.inst.SetPlaybackRate(a.pendingRate); err != nil {
		a.logger.Warn().Err(err).Float64(xglog.FieldRate, a.pendingRate).Msg("failed to apply playback rate")
	}
}

// SetPlaybackRate changes the rate. Before the surface has settled the value
// replaces the one applied on settle.
func (a *NativeAdapter) SetPlaybackRate(rate float64) error {
	if rate <= 0 {
		return ErrInvalidRate
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	switch a.state {
	case stateDestroyed:
		return ErrDestroyed
	case stateActive:
	default:
		return ErrNotInitialized
	}
	a.pendingRate = rate
	if !a.settled {
		return nil
	}
	return a.inst.SetPlaybackRate(rate)
}

// Destroy stops playback. A Destroy racing an Initialize returns only after
// the instance being opened has been closed again.
func (a *NativeAdapter) Destroy() error {
	a.mu.Lock()
	if a.state == stateDestroyed {
		a.mu.Unlock()
		return nil
	}
	wasActive := a.state == stateActive
	var opening chan struct{}
	if a.state == stateAttaching {
		opening = a.attached
	}
	a.state = stateDestroyed
	if a.rateTimer != nil {
		a.rateTimer.Stop()
	}
	inst := a.inst
	a.inst = nil
	a.mu.Unlock()

	a.events.close()
	if opening != nil {
		<-opening
	}
	if !wasActive || inst == nil {
		return nil
	}
	err := inst.Close()
	a.live.dec()
	if err != nil {
		return fmt.Errorf("player: close native surface: %w", err)
	}
	return nil
}
