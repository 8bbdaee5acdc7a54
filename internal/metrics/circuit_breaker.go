// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package metrics holds the Prometheus collectors of the playback client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	breakerOpen = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vodplay_breaker_open",
		Help: "1 while the named breaker rejects calls, 0.5 while probing, 0 when closed",
	}, []string{"breaker"})

	breakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vodplay_breaker_transitions_total",
		Help: "Breaker state changes by target state and cause",
	}, []string{"breaker", "to", "cause"})

	breakerRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vodplay_breaker_rejections_total",
		Help: "Calls refused without reaching the backend",
	}, []string{"breaker"})
)

// ObserveBreaker publishes the state of a breaker as a single gauge value.
func ObserveBreaker(breaker, state string) {
	var v float64
	switch state {
	case "open":
		v = 1
	case "half-open":
		v = 0.5
	}
	breakerOpen.WithLabelValues(breaker).Set(v)
}

// RecordBreakerTransition counts a state change, e.g. to=open cause=threshold.
func RecordBreakerTransition(breaker, to, cause string) {
	breakerTransitions.WithLabelValues(breaker, to, cause).Inc()
}

func RecordBreakerRejection(breaker string) {
	breakerRejections.WithLabelValues(breaker).Inc()
}
