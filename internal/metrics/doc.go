// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

/*
Package metrics provides Prometheus metrics collection and export for observability.

# Overview

The package provides metrics for:
  - Database query performance
  - Embedding builds, model requests and the embedding cache
  - Recommendation generation, including cold starts
  - Event processing, publishing and deduplication
  - Circuit breaker state transitions

Collectors are package-level promauto variables registered with the
default registry. Observer adapts them to recommend.Observer.

# Metrics Endpoint

NewRouter serves the default registry at /metrics and a JSON health
report at /healthz:

	curl http://127.0.0.1:9464/metrics
	curl http://127.0.0.1:9464/healthz

# Available Metrics

Database:
  - duckdb_query_duration_seconds{operation, table}
  - duckdb_query_errors_total{operation, table, error_type}

Embeddings:
  - embedding_builds_total{result}
  - embedding_build_duration_seconds
  - embedding_papers_embedded
  - embedding_model_requests_total{model, result}
  - embedding_cache_hits_total, embedding_cache_misses_total

Recommendations:
  - recommendation_generations_total{result}
  - recommendation_generation_duration_seconds
  - recommendation_cold_starts_total

Events:
  - events_processed_total{topic, result}
  - events_published_total{topic, result}
  - events_deduplicated_total

Circuit breakers:
  - circuit_breaker_state{name} (0=closed, 1=half-open, 2=open)
  - circuit_breaker_state_transitions_total{name, from_state, to_state}
*/
package metrics
