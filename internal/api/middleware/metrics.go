// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vodplay_api_requests_total",
		Help: "Control API requests by route and status class",
	}, []string{"method", "route", "class"})

	apiLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vodplay_api_request_duration_seconds",
		Help:    "Control API latency by route",
		Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 10},
	}, []string{"method", "route"})

	apiInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vodplay_api_requests_in_flight",
		Help: "Control API requests currently being served",
	})
)

// Metrics counts requests by chi route pattern so ids never become labels.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiInFlight.Inc()
			defer apiInFlight.Dec()

			began := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			apiLatency.WithLabelValues(r.Method, route).Observe(time.Since(began).Seconds())
			apiRequests.WithLabelValues(r.Method, route, statusClass(ww.Status())).Inc()
		})
	}
}

// statusClass folds a status code into 2xx..5xx. Handlers that never write
// report 200.
func statusClass(code int) string {
	if code == 0 {
		code = http.StatusOK
	}
	return strconv.Itoa(code/100) + "xx"
}
