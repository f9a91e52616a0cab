// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package metrics

import (
	"errors"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Prometheus instrumentation for:
// - Database query performance (DuckDB)
// - Embedding builds and model requests
// - Recommendation generation
// - Event processing
// - Circuit breakers

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets, // 0.005s, 0.01s, 0.025s, 0.05s, 0.1s, 0.25s, 0.5s, 1s, 2.5s, 5s, 10s
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// Embedding Build Metrics
	EmbeddingBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_builds_total",
			Help: "Total number of embedding builds",
		},
		[]string{"result"}, // "success", "failure"
	)

	EmbeddingBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "embedding_build_duration_seconds",
			Help:    "Duration of embedding builds in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900, 1800},
		},
	)

	EmbeddedPapers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "embedding_papers_embedded",
			Help: "Number of papers embedded by the last build",
		},
	)

	EmbeddingBuildResumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embedding_builds_resumed_total",
			Help: "Total number of builds resumed from a checkpoint",
		},
	)

	// Embedding Model Metrics
	EmbeddingModelRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_model_requests_total",
			Help: "Total number of embedding model requests",
		},
		[]string{"model", "result"}, // result: "success", "failure", "rejected"
	)

	EmbeddingModelDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "embedding_model_request_duration_seconds",
			Help:    "Duration of embedding model requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)

	EmbeddingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embedding_cache_hits_total",
			Help: "Total number of embedding cache hits",
		},
	)

	EmbeddingCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embedding_cache_misses_total",
			Help: "Total number of embedding cache misses",
		},
	)

	// Recommendation Metrics
	RecommendationGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_generations_total",
			Help: "Total number of per-user recommendation generations",
		},
		[]string{"result"}, // "success", "failure"
	)

	RecommendationGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_generation_duration_seconds",
			Help:    "Duration of per-user recommendation generation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendationColdStarts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_cold_starts_total",
			Help: "Total number of generations for users without a profile",
		},
	)

	RecommendationItems = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_items",
			Help:    "Number of recommendations stored per generation",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		},
	)

	// Event Metrics
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_processed_total",
			Help: "Total number of events handled by the router",
		},
		[]string{"topic", "result"}, // result: "success", "failure"
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of events published",
		},
		[]string{"topic", "result"},
	)

	EventsDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_deduplicated_total",
			Help: "Total number of duplicate events dropped",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Ops HTTP Metrics
	OpsRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ops_http_requests_total",
			Help: "Total number of requests to the ops endpoint",
		},
		[]string{"method", "route", "status"},
	)

	OpsRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ops_http_request_duration_seconds",
			Help:    "Ops endpoint request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordOpsRequest records one ops endpoint request.
func RecordOpsRequest(method, route, status string, duration time.Duration) {
	OpsRequestsTotal.WithLabelValues(method, route, status).Inc()
	OpsRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// SetAppInfo publishes the running version.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordModelRequest records one embedding model call.
func RecordModelRequest(model string, duration time.Duration, err error) {
	EmbeddingModelDuration.WithLabelValues(model).Observe(duration.Seconds())
	EmbeddingModelRequests.WithLabelValues(model, resultLabel(err)).Inc()
}

// RecordEmbeddingCache records an embedding cache lookup.
func RecordEmbeddingCache(hit bool) {
	if hit {
		EmbeddingCacheHits.Inc()
	} else {
		EmbeddingCacheMisses.Inc()
	}
}

// RecordEventProcessed records a handled event.
func RecordEventProcessed(topic string, err error) {
	EventsProcessed.WithLabelValues(topic, outcome(err)).Inc()
}

// RecordEventPublished records a publish attempt.
func RecordEventPublished(topic string, err error) {
	EventsPublished.WithLabelValues(topic, resultLabel(err)).Inc()
}

// RecordEventDeduplicated records a dropped duplicate event.
func RecordEventDeduplicated() {
	EventsDeduplicated.Inc()
}

// InitBreaker publishes the closed state for a new circuit breaker.
func InitBreaker(name string) {
	CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed
}

// RecordBreakerStateChange records a circuit breaker transition. It has the
// signature of gobreaker's OnStateChange callback.
func RecordBreakerStateChange(name string, from, to gobreaker.State) {
	CircuitBreakerState.WithLabelValues(name).Set(BreakerStateValue(to))
	CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
}

// RecordBreakerResult records the outcome of a call through a breaker.
func RecordBreakerResult(name string, err error) {
	CircuitBreakerRequests.WithLabelValues(name, resultLabel(err)).Inc()
}

// BreakerStateValue converts circuit breaker state to numeric value for metrics
func BreakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// resultLabel maps an error to success, rejected (breaker open) or failure.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "rejected"
	default:
		return "failure"
	}
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
