// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package player

import (
	"context"
	"errors"
	"sync"
)

type fakeInstance struct {
	events   chan Event
	detached chan struct{}

	mu       sync.Mutex
	rates    []float64
	closed   int
	closeErr error
	onClose  func()
}

func newFakeInstance() *fakeInstance {
	return &fakeInstance{events: make(chan Event, 4), detached: make(chan struct{})}
}

func (f *fakeInstance) Events() <-chan Event { return f.events }

func (f *fakeInstance) SetPlaybackRate(rate float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rates = append(f.rates, rate)
	return nil
}

func (f *fakeInstance) Close() error {
	f.mu.Lock()
	f.closed++
	first := f.closed == 1
	hook := f.onClose
	f.mu.Unlock()
	if first {
		if hook != nil {
			hook()
		}
		close(f.detached)
	}
	return f.closeErr
}

func (f *fakeInstance) Rates() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float64(nil), f.rates...)
}

func (f *fakeInstance) Closed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// detachingInstance wraps fakeInstance so Detached is visible to adapters.
type detachingInstance struct{ *fakeInstance }

func (d detachingInstance) Detached() <-chan struct{} { return d.detached }

type fakeEngine struct {
	mu        sync.Mutex
	instances []*fakeInstance
	srcs      []string
	opts      []Options
	err       error
	detaching bool
	gate      chan struct{}
}

func (e *fakeEngine) Attach(ctx context.Context, src string, opts Options) (Instance, error) {
	if e.gate != nil {
		select {
		case <-e.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	inst := newFakeInstance()
	e.instances = append(e.instances, inst)
	e.srcs = append(e.srcs, src)
	e.opts = append(e.opts, opts)
	if e.detaching {
		return detachingInstance{inst}, nil
	}
	return inst, nil
}

func (e *fakeEngine) Open(ctx context.Context, src string, opts Options) (Instance, error) {
	return e.Attach(ctx, src, opts)
}

func (e *fakeEngine) last() *fakeInstance {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.instances) == 0 {
		return nil
	}
	return e.instances[len(e.instances)-1]
}

var errBoom = errors.New("boom")
