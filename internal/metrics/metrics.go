// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics holds the Prometheus collectors for the analyzer. The
// collectors register with the default registry on import and are served
// by the HTTP server at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Stage metrics
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paper_analyzer_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
		},
		[]string{"stage", "outcome"},
	)

	StageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_analyzer_stage_failures_total",
			Help: "Total number of stage failures by kind",
		},
		[]string{"stage", "kind"},
	)

	// Fallback metrics
	SummaryFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paper_analyzer_summary_fallbacks_total",
			Help: "Total number of summaries produced by the extractive fallback",
		},
	)

	AudioFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paper_analyzer_audio_fallbacks_total",
			Help: "Total number of audio renders that used the fallback utterance",
		},
	)

	// Search metrics
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_analyzer_search_requests_total",
			Help: "Total number of backend search requests",
		},
		[]string{"backend", "outcome"},
	)

	SearchResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paper_analyzer_search_results",
			Help:    "Number of results returned per backend search",
			Buckets: []float64{0, 1, 5, 10, 20, 50},
		},
		[]string{"backend"},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_analyzer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paper_analyzer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// Storage metrics
	AudioSwept = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paper_analyzer_audio_swept_total",
			Help: "Total number of files removed by the storage sweep",
		},
		[]string{"reason"},
	)
)

// ObserveStage records one stage run. An empty kind means success.
func ObserveStage(stage, kind string, d time.Duration) {
	outcome := "ok"
	if kind != "" {
		outcome = "error"
		StageFailures.WithLabelValues(stage, kind).Inc()
	}
	StageDuration.WithLabelValues(stage, outcome).Observe(d.Seconds())
}

// ObserveSearch records one backend search.
func ObserveSearch(backend string, results int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	SearchRequests.WithLabelValues(backend, outcome).Inc()
	SearchResults.WithLabelValues(backend).Observe(float64(results))
}

// ObserveSweep records the files removed by one sweep.
func ObserveSweep(empty, expired, temp int) {
	AudioSwept.WithLabelValues("empty").Add(float64(empty))
	AudioSwept.WithLabelValues("expired").Add(float64(expired))
	AudioSwept.WithLabelValues("temp").Add(float64(temp))
}
