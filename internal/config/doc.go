// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

/*
Package config provides centralized configuration management for Paperwise.

Configuration is loaded in layers, each overriding the previous one:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file (CONFIG_PATH, ./config.yaml, /etc/paperwise/config.yaml)
 3. Environment variables, through an explicit name mapping

A .env file in the working directory is read into the process environment
before the layers are applied. Variables that are already set win over the
file.

# Sections

  - database: DuckDB path and resource limits
  - embedding: embedding model provider, endpoint, batching and rate limits
  - recommend: hybrid blend weights, top-K, popularity scope, rebuild schedule
  - events: trigger pipeline transport (gochannel or NATS JetStream) and router middleware
  - checkpoint: Badger directory for embedding build checkpoints
  - logging: zerolog level and format
  - metrics: ops HTTP endpoint serving /metrics and /healthz
  - supervisor: suture restart policy

# Environment Variables

	DUCKDB_PATH                 database.path
	EMBEDDING_PROVIDER          embedding.provider (http, hashing)
	EMBEDDING_URL               embedding.url
	EMBEDDING_API_KEY           embedding.api_key
	EMBEDDING_MODEL_VERSION     embedding.model_version
	RECOMMEND_TOP_K             recommend.top_k
	RECOMMEND_ALPHA             recommend.alpha
	RECOMMEND_POPULARITY_SCOPE  recommend.popularity_scope (content, union)
	EVENTS_TRANSPORT            events.transport (gochannel, nats)
	NATS_URL                    events.url
	NATS_EMBEDDED               events.embedded_server
	EVENTS_TOPICS               events.topics (comma separated)
	CHECKPOINT_PATH             checkpoint.path
	LOG_LEVEL                   logging.level
	METRICS_ADDR                metrics.addr

The full list lives in envTransformFunc.

# Validation

Struct tags are checked with go-playground/validator. Cross-field rules
(endpoint URLs required by the selected provider or transport, blend
weights not all zero) are checked afterwards in Validate.
*/
package config
