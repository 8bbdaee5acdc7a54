// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package session owns the playback session: it resolves the entry to play,
// drives the adapter lifecycle and reacts to playback events.
package session

import "errors"

var (
	ErrEntryNotFound = errors.New("playlist entry not found")
	ErrStale         = errors.New("session superseded")
	ErrNoSession     = errors.New("no active playback")
)

// State is the lifecycle state of the current session.
type State string

const (
	StateIdle        State = "idle"
	StateLoading     State = "loading"
	StateReady       State = "ready"
	StatePlaying     State = "playing"
	StateComplete    State = "complete"
	StateEnded       State = "ended"
	StateFailed      State = "failed"
	StateUnplayable  State = "unplayable"  // entry missing; shell without playback
	StateUnavailable State = "unavailable" // detail could not be loaded
	StateTornDown    State = "torn_down"
)

// AllStates lists every state in lifecycle order.
var AllStates = []State{
	StateIdle, StateLoading, StateReady, StatePlaying, StateComplete,
	StateEnded, StateFailed, StateUnplayable, StateUnavailable, StateTornDown,
}

// HasAdapter reports whether an adapter may be live in s.
func (s State) HasAdapter() bool {
	switch s {
	case StateReady, StatePlaying, StateComplete:
		return true
	}
	return false
}

// EventKind is a domain event in the session lifecycle.
type EventKind int

const (
	EvUnknown      EventKind = iota
	EvLoad                   // route entered or play parameters changed
	EvResolved               // detail loaded and entry found
	EvEntryMissing           // detail loaded, entry absent
	EvFetchFailed            // detail could not be loaded
	EvStarted                // adapter initialized
	EvStartFailed            // adapter could not be created or initialized
	EvComplete               // clean play-through
	EvEnded                  // terminal stop
	EvFailed                 // playback error
	EvTeardown               // route exited
)

// AllEvents lists every event kind.
var AllEvents = []EventKind{
	EvLoad, EvResolved, EvEntryMissing, EvFetchFailed, EvStarted,
	EvStartFailed, EvComplete, EvEnded, EvFailed, EvTeardown,
}

func (k EventKind) String() string {
	switch k {
	case EvLoad:
		return "load"
	case EvResolved:
		return "resolved"
	case EvEntryMissing:
		return "entry_missing"
	case EvFetchFailed:
		return "fetch_failed"
	case EvStarted:
		return "started"
	case EvStartFailed:
		return "start_failed"
	case EvComplete:
		return "complete"
	case EvEnded:
		return "ended"
	case EvFailed:
		return "failed"
	case EvTeardown:
		return "teardown"
	default:
		return "unknown"
	}
}
