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

const defaultDetachTimeout = 2 * time.Second

// Slot guards the single page surface in-page players attach to.
type Slot struct {
	ch chan struct{}
}

// NewSlot returns a free slot.
func NewSlot() *Slot {
	return &Slot{ch: make(chan struct{}, 1)}
}

// Acquire blocks until the slot is free, ctx is done or abort is closed.
func (s *Slot) Acquire(ctx context.Context, abort <-chan struct{}) error {
	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-abort:
		return ErrDestroyed
	}
}

// Release frees the slot. Releasing a free slot is a no-op.
func (s *Slot) Release() {
	select {
	case <-s.ch:
	default:
	}
}

// Held reports whether a player currently owns the slot.
func (s *Slot) Held() bool {
	return len(s.ch) == 1
}

// InPageAdapter drives an in-page engine attached to a shared Slot.
//
// Destroy holds the slot until the engine has detached, so a successor can
// only attach to a clean surface.
type InPageAdapter struct {
	variant       Variant
	engine        Engine
	slot          *Slot
	settle        time.Duration
	detachTimeout time.Duration
	live          *liveCounter
	logger        zerolog.Logger
	events        *dispatcher

	mu    sync.Mutex
	state adapterState
	inst  Instance
	abort chan struct{}
}

// NewInPageAdapter builds an adapter of the given variant over engine. settle
// is the wait after close for engines that do not report detachment.
func NewInPageAdapter(v Variant, engine Engine, slot *Slot, settle time.Duration) *InPageAdapter {
	return newInPageAdapter(v, engine, slot, settle, defaultDetachTimeout, nil)
}

func newInPageAdapter(v Variant, engine Engine, slot *Slot, settle, detachTimeout time.Duration, live *liveCounter) *InPageAdapter {
	if slot == nil {
		slot = NewSlot()
	}
	if detachTimeout <= 0 {
		detachTimeout = defaultDetachTimeout
	}
	return &InPageAdapter{
		variant:       v,
		engine:        engine,
		slot:          slot,
		settle:        settle,
		detachTimeout: detachTimeout,
		live:          live,
		logger:        xglog.WithComponent("player").With().Str(xglog.FieldVariant, string(v)).Logger(),
		events:        newDispatcher(v),
		abort:         make(chan struct{}),
	}
}

func (a *InPageAdapter) Variant() Variant { return a.variant }

func (a *InPageAdapter) OnComplete(fn func())    { a.events.addComplete(fn) }
func (a *InPageAdapter) OnEnded(fn func())       { a.events.addEnded(fn) }
func (a *InPageAdapter) OnFailed(fn func(error)) { a.events.addFailed(fn) }

func (a *InPageAdapter) Initialize(ctx context.Context, src string, opts Options) error {
	a.mu.Lock()
	switch a.state {
	case stateDestroyed:
		a.mu.Unlock()
		return ErrDestroyed
	case stateAttaching, stateActive:
		a.mu.Unlock()
		return ErrAlreadyInitialized
	}
	if a.engine == nil {
		a.mu.Unlock()
		return ErrUnsupported
	}
	a.state = stateAttaching
	a.mu.Unlock()

	variant := string(a.variant)
	if err := a.slot.Acquire(ctx, a.abort); err != nil {
		a.resetAttaching()
		metrics.RecordAdapterInit(variant, "aborted")
		return fmt.Errorf("player: acquire surface: %w", err)
	}

	inst, err := a.engine.Attach(ctx, src, opts)
	if err != nil {
		a.slot.Release()
		a.resetAttaching()
		metrics.RecordAdapterInit(variant, "error")
		return fmt.Errorf("player: attach %s engine: %w", variant, err)
	}

	a.mu.Lock()
	if a.state == stateDestroyed {
		a.mu.Unlock()
		a.detach(inst)
		metrics.RecordAdapterInit(variant, "aborted")
		return ErrDestroyed
	}
	a.inst = inst
	a.state = stateActive
	a.mu.Unlock()

	a.live.inc()
	metrics.RecordAdapterInit(variant, "ok")
	go a.events.run(inst.Events())
	return nil
}

func (a *InPageAdapter) resetAttaching() {
	a.mu.Lock()
	if a.state == stateAttaching {
		a.state = stateIdle
	}
	a.mu.Unlock()
}

func (a *InPageAdapter) SetPlaybackRate(rate float64) error {
	if rate <= 0 {
		return ErrInvalidRate
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	switch a.state {
	case stateDestroyed:
		return ErrDestroyed
	case stateActive:
		return a.inst.SetPlaybackRate(rate)
	default:
		return ErrNotInitialized
	}
}

func (a *InPageAdapter) Destroy() error {
	a.mu.Lock()
	if a.state == stateDestroyed {
		a.mu.Unlock()
		return nil
	}
	wasActive := a.state == stateActive
	a.state = stateDestroyed
	close(a.abort)
	inst := a.inst
	a.inst = nil
	a.mu.Unlock()

	a.events.close()
	if !wasActive || inst == nil {
		return nil
	}
	err := a.detach(inst)
	a.live.dec()
	if err != nil {
		return fmt.Errorf("player: close %s engine: %w", a.variant, err)
	}
	return nil
}

// detach closes inst, waits for the surface to be released and frees the slot.
func (a *InPageAdapter) detach(inst Instance) error {
	defer a.slot.Release()
	err := inst.Close()
	if d, ok := inst.(Detacher); ok {
		select {
		case <-d.Detached():
		case <-time.After(a.detachTimeout):
			a.logger.Warn().Dur("timeout", a.detachTimeout).Msg("engine did not detach in time")
		}
		return err
	}
	if a.settle > 0 {
		time.Sleep(a.settle)
	}
	return err
}
