// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backendRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vodplay_backend_request_duration_seconds",
		Help:    "Backend request latencies by operation and outcome",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})

	backendRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vodplay_backend_retries_total",
		Help: "Backend request retries by operation",
	}, []string{"operation"})

	detailFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vodplay_detail_fetch_total",
		Help: "Video detail fetches by outcome",
	}, []string{"outcome"}) // outcome=ok|not_found|network|bad_response

	detailCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vodplay_detail_cache_total",
		Help: "Current-detail cache lookups by result",
	}, []string{"result"}) // result=hit|miss

	reportSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vodplay_report_submissions_total",
		Help: "Playback error report submissions by outcome",
	}, []string{"outcome"}) // outcome=ok|invalid|error

	recommendFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vodplay_recommend_fetch_total",
		Help: "Recommendation fetches by kind and outcome",
	}, []string{"kind", "outcome"}) // kind=video|category|home
)

// ObserveBackendRequest records the latency of a backend call.
func ObserveBackendRequest(operation, outcome string, seconds float64) {
	backendRequestDuration.WithLabelValues(operation, outcome).Observe(seconds)
}

// RecordBackendRetry counts a retried backend call.
func RecordBackendRetry(operation string) {
	backendRetries.WithLabelValues(operation).Inc()
}

// RecordDetailFetch counts a video detail fetch outcome.
func RecordDetailFetch(outcome string) {
	detailFetches.WithLabelValues(outcome).Inc()
}

// RecordDetailCache counts a current-detail cache lookup.
func RecordDetailCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	detailCacheLookups.WithLabelValues(result).Inc()
}

// RecordReport counts a report submission outcome.
func RecordReport(outcome string) {
	reportSubmissions.WithLabelValues(outcome).Inc()
}

// RecordRecommend counts a recommendation fetch.
func RecordRecommend(kind, outcome string) {
	recommendFetches.WithLabelValues(kind, outcome).Inc()
}
