// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vodplay_session_transitions_total",
		Help: "Session state transitions by source and target state",
	}, []string{"from", "to"})

	sessionIllegalTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vodplay_session_illegal_transitions_total",
		Help: "Rejected session events by state and event",
	}, []string{"state", "event"})

	sessionStaleDiscards = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vodplay_session_stale_discards_total",
		Help: "Async results discarded because their session was superseded",
	}, []string{"kind"}) // kind=fetch|complete|ended|failed|init

	sessionAutoAdvance = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vodplay_session_auto_advance_total",
		Help: "Auto-advance decisions after playback ended",
	}, []string{"outcome"}) // outcome=advanced|last_in_group|disabled|no_circuit

	adapterLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vodplay_adapter_live",
		Help: "Number of initialized and not yet destroyed playback adapters",
	})

	adapterInit = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vodplay_adapter_init_total",
		Help: "Adapter initializations by variant and outcome",
	}, []string{"variant", "outcome"})

	adapterEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vodplay_adapter_events_total",
		Help: "Terminal adapter events by variant and kind",
	}, []string{"variant", "event"}) // event=complete|ended|failed

	processSignals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vodplay_player_process_signals_total",
		Help: "Signals sent to external player process groups",
	}, []string{"signal", "result"})

	processStops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vodplay_player_process_stops_total",
		Help: "External player process teardowns by mode",
	}, []string{"mode"}) // mode=graceful|forced

	historyRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vodplay_history_records_total",
		Help: "Play-history writes by sink and outcome",
	}, []string{"sink", "outcome"})
)

// RecordSessionTransition counts an applied state transition.
func RecordSessionTransition(from, to string) {
	sessionTransitions.WithLabelValues(from, to).Inc()
}

// RecordIllegalTransition counts an event rejected in the given state.
func RecordIllegalTransition(state, event string) {
	sessionIllegalTransitions.WithLabelValues(state, event).Inc()
}

// RecordStaleDiscard counts a superseded async result.
func RecordStaleDiscard(kind string) {
	sessionStaleDiscards.WithLabelValues(kind).Inc()
}

// RecordAutoAdvance counts an auto-advance decision.
func RecordAutoAdvance(outcome string) {
	sessionAutoAdvance.WithLabelValues(outcome).Inc()
}

// IncAdapterLive marks one more adapter as live.
func IncAdapterLive() { adapterLive.Inc() }

// DecAdapterLive marks one adapter as destroyed.
func DecAdapterLive() { adapterLive.Dec() }

// RecordAdapterInit counts an adapter initialization attempt.
func RecordAdapterInit(variant, outcome string) {
	adapterInit.WithLabelValues(variant, outcome).Inc()
}

// RecordAdapterEvent counts a terminal adapter event.
func RecordAdapterEvent(variant, event string) {
	adapterEvents.WithLabelValues(variant, event).Inc()
}

// RecordProcessSignal counts a signal sent to a player process group.
func RecordProcessSignal(signal, result string) {
	processSignals.WithLabelValues(signal, result).Inc()
}

// RecordProcessStop counts a player process teardown.
func RecordProcessStop(mode string) {
	processStops.WithLabelValues(mode).Inc()
}

// RecordHistory counts a play-history write.
func RecordHistory(sink, outcome string) {
	historyRecords.WithLabelValues(sink, outcome).Inc()
}
