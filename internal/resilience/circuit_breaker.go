// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package resilience guards outbound calls with a circuit breaker.
package resilience

import (
	"errors"
	"sync"
	"time"

	"github.com/ManuGH/vodplay/internal/metrics"
)

// State is the breaker position.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// ErrCircuitOpen is returned without calling through while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// CircuitBreaker stops calling a failing backend until the cooldown has
// passed, then lets a single probe through. Only errors accepted by the
// failure predicate count; anything else is treated like a success.
type CircuitBreaker struct {
	name      string
	threshold int
	cooldown  time.Duration
	clock     clock
	isFailure func(error) bool

	mu       sync.Mutex
	state    State
	streak   int
	openedAt time.Time
	probe    bool
}

// Option configures a CircuitBreaker.
type Option func(*CircuitBreaker)

func WithClock(c clock) Option {
	return func(cb *CircuitBreaker) { cb.clock = c }
}

// WithFailurePredicate limits which errors count as backend failures.
func WithFailurePredicate(fn func(error) bool) Option {
	return func(cb *CircuitBreaker) {
		if fn != nil {
			cb.isFailure = fn
		}
	}
}

// NewCircuitBreaker opens after threshold consecutive failures and stays open
// for cooldown. Non-positive values select 3 and 30s.
func NewCircuitBreaker(name string, threshold int, cooldown time.Duration, opts ...Option) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 3
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	cb := &CircuitBreaker{
		name:      name,
		threshold: threshold,
		cooldown:  cooldown,
		clock:     wallClock{},
		isFailure: func(err error) bool { return err != nil },
		state:     StateClosed,
	}
	for _, opt := range opts {
		opt(cb)
	}
	metrics.ObserveBreaker(name, string(StateClosed))
	return cb
}

// Execute calls fn unless the breaker is open and settles the outcome.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	probe, ok := cb.admit()
	if !ok {
		metrics.RecordBreakerRejection(cb.name)
		return ErrCircuitOpen
	}
	err := fn()
	cb.settle(probe, err != nil && cb.isFailure(err))
	return err
}

// admit reports whether a call may proceed and whether it is the half-open probe.
func (cb *CircuitBreaker) admit() (probe, ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && cb.clock.Now().Sub(cb.openedAt) >= cb.cooldown {
		cb.moveLocked(StateHalfOpen, "cooldown")
	}
	switch cb.state {
	case StateClosed:
		return false, true
	case StateHalfOpen:
		if cb.probe {
			return false, false
		}
		cb.probe = true
		return true, true
	default:
		return false, false
	}
}

func (cb *CircuitBreaker) settle(probe, failed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if probe {
		cb.probe = false
	}
	if !failed {
		cb.streak = 0
		if cb.state != StateClosed {
			cb.moveLocked(StateClosed, "probe_ok")
		}
		return
	}

	cb.streak++
	switch {
	case cb.state == StateHalfOpen:
		cb.moveLocked(StateOpen, "probe_failed")
	case cb.state == StateClosed && cb.streak >= cb.threshold:
		cb.moveLocked(StateOpen, "threshold")
	}
}

func (cb *CircuitBreaker) moveLocked(to State, cause string) {
	if cb.state == to {
		return
	}
	cb.state = to
	if to == StateOpen {
		cb.openedAt = cb.clock.Now()
	}
	metrics.ObserveBreaker(cb.name, string(to))
	metrics.RecordBreakerTransition(cb.name, string(to), cause)
}

// State returns the current position without advancing the cooldown.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
