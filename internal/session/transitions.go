// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import "fmt"

// Transition is a single allowed edge in the session state machine.
type Transition struct {
	From  State
	To    State
	Event EventKind
}

// Decision records whether a transition is allowed and why it is forbidden.
type Decision struct {
	Allowed bool
	Reason  string
}

const (
	ForbiddenTornDown        = "torn_down"
	ForbiddenAlreadyInState  = "already_in_state"
	ForbiddenOutOfOrder      = "out_of_order"
	ForbiddenRequiresLoading = "requires_loading"
	ForbiddenRequiresReady   = "requires_ready"
	ForbiddenRequiresPlaying = "requires_playing"
)

var transitionsTable = []Transition{
	// Load path; any state re-enters Loading when the route changes.
	{From: StateIdle, To: StateLoading, Event: EvLoad},
	{From: StateLoading, To: StateLoading, Event: EvLoad},
	{From: StateReady, To: StateLoading, Event: EvLoad},
	{From: StatePlaying, To: StateLoading, Event: EvLoad},
	{From: StateComplete, To: StateLoading, Event: EvLoad},
	{From: StateEnded, To: StateLoading, Event: EvLoad},
	{From: StateFailed, To: StateLoading, Event: EvLoad},
	{From: StateUnplayable, To: StateLoading, Event: EvLoad},
	{From: StateUnavailable, To: StateLoading, Event: EvLoad},
	{From: StateTornDown, To: StateLoading, Event: EvLoad},

	// Resolution
	{From: StateLoading, To: StateReady, Event: EvResolved},
	{From: StateLoading, To: StateUnplayable, Event: EvEntryMissing},
	{From: StateLoading, To: StateUnavailable, Event: EvFetchFailed},

	// Playback
	{From: StateReady, To: StatePlaying, Event: EvStarted},
	{From: StateReady, To: StateFailed, Event: EvStartFailed},
	{From: StatePlaying, To: StateComplete, Event: EvComplete},
	{From: StatePlaying, To: StateEnded, Event: EvEnded},
	{From: StateComplete, To: StateEnded, Event: EvEnded},
	{From: StatePlaying, To: StateFailed, Event: EvFailed},

	// Route exit
	{From: StateIdle, To: StateTornDown, Event: EvTeardown},
	{From: StateLoading, To: StateTornDown, Event: EvTeardown},
	{From: StateReady, To: StateTornDown, Event: EvTeardown},
	{From: StatePlaying, To: StateTornDown, Event: EvTeardown},
	{From: StateComplete, To: StateTornDown, Event: EvTeardown},
	{From: StateEnded, To: StateTornDown, Event: EvTeardown},
	{From: StateFailed, To: StateTornDown, Event: EvTeardown},
	{From: StateUnplayable, To: StateTornDown, Event: EvTeardown},
	{From: StateUnavailable, To: StateTornDown, Event: EvTeardown},
}

// TransitionFor returns the allowed transition for a given state+event.
func TransitionFor(from State, ev EventKind) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Event == ev {
			return tr, true
		}
	}
	return Transition{}, false
}

func allowed() Decision        { return Decision{Allowed: true} }
func forbid(r string) Decision { return Decision{Allowed: false, Reason: r} }

// decisionTable defines an explicit decision for every State×Event combination.
var decisionTable = map[State]map[EventKind]Decision{
	StateIdle: {
		EvLoad:         allowed(),
		EvResolved:     forbid(ForbiddenRequiresLoading),
		EvEntryMissing: forbid(ForbiddenRequiresLoading),
		EvFetchFailed:  forbid(ForbiddenRequiresLoading),
		EvStarted:      forbid(ForbiddenRequiresReady),
		EvStartFailed:  forbid(ForbiddenRequiresReady),
		EvComplete:     forbid(ForbiddenRequiresPlaying),
		EvEnded:        forbid(ForbiddenRequiresPlaying),
		EvFailed:       forbid(ForbiddenRequiresPlaying),
		EvTeardown:     allowed(),
	},
	StateLoading: {
		EvLoad:         allowed(),
		EvResolved:     allowed(),
		EvEntryMissing: allowed(),
		EvFetchFailed:  allowed(),
		EvStarted:      forbid(ForbiddenRequiresReady),
		EvStartFailed:  forbid(ForbiddenRequiresReady),
		EvComplete:     forbid(ForbiddenRequiresPlaying),
		EvEnded:        forbid(ForbiddenRequiresPlaying),
		EvFailed:       forbid(ForbiddenRequiresPlaying),
		EvTeardown:     allowed(),
	},
	StateReady: {
		EvLoad:         allowed(),
		EvResolved:     forbid(ForbiddenAlreadyInState),
		EvEntryMissing: forbid(ForbiddenOutOfOrder),
		EvFetchFailed:  forbid(ForbiddenOutOfOrder),
		EvStarted:      allowed(),
		EvStartFailed:  allowed(),
		EvComplete:     forbid(ForbiddenRequiresPlaying),
		EvEnded:        forbid(ForbiddenRequiresPlaying),
		EvFailed:       forbid(ForbiddenRequiresPlaying),
		EvTeardown:     allowed(),
	},
	StatePlaying: {
		EvLoad:         allowed(),
		EvResolved:     forbid(ForbiddenOutOfOrder),
		EvEntryMissing: forbid(ForbiddenOutOfOrder),
		EvFetchFailed:  forbid(ForbiddenOutOfOrder),
		EvStarted:      forbid(ForbiddenAlreadyInState),
		EvStartFailed:  forbid(ForbiddenOutOfOrder),
		EvComplete:     allowed(),
		EvEnded:        allowed(),
		EvFailed:       allowed(),
		EvTeardown:     allowed(),
	},
	StateComplete: {
		EvLoad:         allowed(),
		EvResolved:     forbid(ForbiddenOutOfOrder),
		EvEntryMissing: forbid(ForbiddenOutOfOrder),
		EvFetchFailed:  forbid(ForbiddenOutOfOrder),
		EvStarted:      forbid(ForbiddenOutOfOrder),
		EvStartFailed:  forbid(ForbiddenOutOfOrder),
		EvComplete:     forbid(ForbiddenAlreadyInState),
		EvEnded:        allowed(),
		EvFailed:       forbid(ForbiddenOutOfOrder),
		EvTeardown:     allowed(),
	},
	StateEnded: {
		EvLoad:         allowed(),
		EvResolved:     forbid(ForbiddenOutOfOrder),
		EvEntryMissing: forbid(ForbiddenOutOfOrder),
		EvFetchFailed:  forbid(ForbiddenOutOfOrder),
		EvStarted:      forbid(ForbiddenOutOfOrder),
		EvStartFailed:  forbid(ForbiddenOutOfOrder),
		EvComplete:     forbid(ForbiddenRequiresPlaying),
		EvEnded:        forbid(ForbiddenAlreadyInState),
		EvFailed:       forbid(ForbiddenRequiresPlaying),
		EvTeardown:     allowed(),
	},
	StateFailed: {
		EvLoad:         allowed(),
		EvResolved:     forbid(ForbiddenOutOfOrder),
		EvEntryMissing: forbid(ForbiddenOutOfOrder),
		EvFetchFailed:  forbid(ForbiddenOutOfOrder),
		EvStarted:      forbid(ForbiddenOutOfOrder),
		EvStartFailed:  forbid(ForbiddenAlreadyInState),
		EvComplete:     forbid(ForbiddenRequiresPlaying),
		EvEnded:        forbid(ForbiddenRequiresPlaying),
		EvFailed:       forbid(ForbiddenAlreadyInState),
		EvTeardown:     allowed(),
	},
	StateUnplayable: {
		EvLoad:         allowed(),
		EvResolved:     forbid(ForbiddenRequiresLoading),
		EvEntryMissing: forbid(ForbiddenAlreadyInState),
		EvFetchFailed:  forbid(ForbiddenRequiresLoading),
		EvStarted:      forbid(ForbiddenRequiresReady),
		EvStartFailed:  forbid(ForbiddenRequiresReady),
		EvComplete:     forbid(ForbiddenRequiresPlaying),
		EvEnded:        forbid(ForbiddenRequiresPlaying),
		EvFailed:       forbid(ForbiddenRequiresPlaying),
		EvTeardown:     allowed(),
	},
	StateUnavailable: {
		EvLoad:         allowed(),
		EvResolved:     forbid(ForbiddenRequiresLoading),
		EvEntryMissing: forbid(ForbiddenRequiresLoading),
		EvFetchFailed:  forbid(ForbiddenAlreadyInState),
		EvStarted:      forbid(ForbiddenRequiresReady),
		EvStartFailed:  forbid(ForbiddenRequiresReady),
		EvComplete:     forbid(ForbiddenRequiresPlaying),
		EvEnded:        forbid(ForbiddenRequiresPlaying),
		EvFailed:       forbid(ForbiddenRequiresPlaying),
		EvTeardown:     allowed(),
	},
	StateTornDown: {
		EvLoad:         allowed(),
		EvResolved:     forbid(ForbiddenTornDown),
		EvEntryMissing: forbid(ForbiddenTornDown),
		EvFetchFailed:  forbid(ForbiddenTornDown),
		EvStarted:      forbid(ForbiddenTornDown),
		EvStartFailed:  forbid(ForbiddenTornDown),
		EvComplete:     forbid(ForbiddenTornDown),
		EvEnded:        forbid(ForbiddenTornDown),
		EvFailed:       forbid(ForbiddenTornDown),
		EvTeardown:     forbid(ForbiddenAlreadyInState),
	},
}

// DecisionFor returns the explicit decision for state×event.
func DecisionFor(from State, ev EventKind) (Decision, bool) {
	m, ok := decisionTable[from]
	if !ok {
		return Decision{}, false
	}
	d, ok := m[ev]
	return d, ok
}

// ForbiddenTransitionReason documents why a transition is disallowed.
func ForbiddenTransitionReason(from State, ev EventKind) string {
	decision, ok := DecisionFor(from, ev)
	if !ok || decision.Allowed {
		return ""
	}
	return decision.Reason
}

// IllegalTransitionError reports an event that is not valid in the current state.
type IllegalTransitionError struct {
	From   State
	Event  EventKind
	Reason string
}

func (e *IllegalTransitionError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("illegal transition: %s + %s", e.From, e.Event)
	}
	return fmt.Sprintf("illegal transition: %s + %s (%s)", e.From, e.Event, e.Reason)
}

// Next resolves the target state for ev in from. Illegal events leave the
// state unchanged and return an *IllegalTransitionError.
func Next(from State, ev EventKind) (Transition, error) {
	decision, ok := DecisionFor(from, ev)
	if !ok || !decision.Allowed {
		return Transition{From: from, To: from, Event: ev}, &IllegalTransitionError{From: from, Event: ev, Reason: decision.Reason}
	}
	tr, ok := TransitionFor(from, ev)
	if !ok {
		return Transition{From: from, To: from, Event: ev}, &IllegalTransitionError{From: from, Event: ev}
	}
	return tr, nil
}
