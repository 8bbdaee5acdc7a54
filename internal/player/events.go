// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package player

import (
	"sync"

	"github.com/ManuGH/vodplay/internal/metrics"
)

// dispatcher turns instance events into adapter callbacks.
type dispatcher struct {
	variant Variant

	mu         sync.Mutex
	onComplete []func()
	onEnded    []func()
	onFailed   []func(error)
	closed     bool
	terminal   bool
	completed  bool

	done      chan struct{}
	closeOnce sync.Once
}

func newDispatcher(v Variant) *dispatcher {
	return &dispatcher{variant: v, done: make(chan struct{})}
}

func (d *dispatcher) addComplete(fn func()) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	d.onComplete = append(d.onComplete, fn)
	d.mu.Unlock()
}

func (d *dispatcher) addEnded(fn func()) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	d.onEnded = append(d.onEnded, fn)
	d.mu.Unlock()
}

func (d *dispatcher) addFailed(fn func(error)) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	d.onFailed = append(d.onFailed, fn)
	d.mu.Unlock()
}

// run pumps events until the channel closes or the dispatcher is closed.
func (d *dispatcher) run(events <-chan Event) {
	for {
		select {
		case <-d.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			d.handle(ev)
		}
	}
}

func (d *dispatcher) handle(ev Event) {
	d.mu.Lock()
	if d.closed || d.terminal {
		d.mu.Unlock()
		return
	}

	kind := ev.Kind
	// An error after a clean play-through is a plain stop.
	if kind == EventError && d.completed {
		kind = EventEnded
	}

	var simple []func()
	var failed []func(error)
	switch kind {
	case EventComplete:
		if d.completed {
			d.mu.Unlock()
			return
		}
		d.completed = true
		simple = append(simple, d.onComplete...)
	case EventEnded:
		d.terminal = true
		simple = append(simple, d.onEnded...)
	case EventError:
		d.terminal = true
		failed = append(failed, d.onFailed...)
	default:
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	metrics.RecordAdapterEvent(string(d.variant), kind.String())
	for _, fn := range simple {
		fn()
	}
	for _, fn := range failed {
		fn(ev.Err)
	}
}

// close drops every later event. It does not wait for run to return.
func (d *dispatcher) close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.closeOnce.Do(func() { close(d.done) })
}
