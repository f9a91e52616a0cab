// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/paperwise/config.yaml",
	"/etc/paperwise/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvPath is the .env file read before the environment layer.
var DotEnvPath = ".env"

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any mapped setting
//
// Precedence is ENV > File > Defaults.
func LoadWithKoanf() (*Config, error) {
	if err := loadDotEnv(DotEnvPath); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables
	// DUCKDB_PATH -> database.path
	// NATS_URL -> events.url
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadDotEnv reads path into the process environment if it exists.
// Variables that are already set are not overwritten.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"events.topics",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
var envMappings = map[string]string{
	// Database
	"duckdb_path":          "database.path",
	"duckdb_max_memory":    "database.max_memory",
	"duckdb_threads":       "database.threads",
	"duckdb_query_timeout": "database.query_timeout",

	// Embedding model
	"embedding_provider":            "embedding.provider",
	"embedding_url":                 "embedding.url",
	"embedding_api_key":             "embedding.api_key",
	"embedding_model":               "embedding.model",
	"embedding_model_version":       "embedding.model_version",
	"embedding_dimensions":          "embedding.dimensions",
	"embedding_batch_size":          "embedding.batch_size",
	"embedding_timeout":             "embedding.timeout",
	"embedding_requests_per_second": "embedding.requests_per_second",
	"embedding_burst":               "embedding.burst",
	"embedding_cache_size":          "embedding.cache_size",
	"embedding_breaker_failures":    "embedding.breaker_failures",
	"embedding_breaker_timeout":     "embedding.breaker_timeout",

	// Recommendation blend and schedule
	"recommend_top_k":              "recommend.top_k",
	"recommend_alpha":              "recommend.alpha",
	"recommend_beta":               "recommend.beta",
	"recommend_gamma":              "recommend.gamma",
	"recommend_popularity_scope":   "recommend.popularity_scope",
	"recommend_prediction_timeout": "recommend.prediction_timeout",
	"recommend_rebuild_interval":   "recommend.rebuild_interval",
	"recommend_rebuild_on_startup": "recommend.rebuild_on_startup",
	"recommend_regenerate_all":     "recommend.regenerate_all",
	"recommend_related_k":          "recommend.related_k",
	"recommend_diversity_enabled":  "recommend.diversity_enabled",
	"recommend_diversity_lambda":   "recommend.diversity_lambda",

	// Trigger pipeline
	"events_enabled":                "events.enabled",
	"events_transport":              "events.transport",
	"nats_url":                      "events.url",
	"nats_embedded":                 "events.embedded_server",
	"nats_store_dir":                "events.store_dir",
	"nats_max_memory":               "events.max_memory",
	"nats_max_store":                "events.max_store",
	"nats_durable_name":             "events.durable_name",
	"nats_queue_group":              "events.queue_group",
	"nats_subscribers":              "events.subscribers_count",
	"events_topics":                 "events.topics",
	"events_retry_count":            "events.retry_count",
	"events_retry_initial_interval": "events.retry_initial_interval",
	"events_throttle_per_second":    "events.throttle_per_second",
	"events_dedup_enabled":          "events.deduplication_enabled",
	"events_dedup_ttl":              "events.deduplication_ttl",
	"events_dedup_capacity":         "events.deduplication_capacity",
	"events_poison_topic":           "events.poison_queue_topic",
	"events_close_timeout":          "events.close_timeout",
	"events_breaker_failures":       "events.publish_breaker_failures",

	// Checkpoints
	"checkpoint_enabled": "checkpoint.enabled",
	"checkpoint_path":    "checkpoint.path",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Metrics
	"metrics_enabled": "metrics.enabled",
	"metrics_addr":    "metrics.addr",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - DUCKDB_PATH -> database.path
//   - EMBEDDING_URL -> embedding.url
//   - NATS_EMBEDDED -> events.embedded_server
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// Unmapped keys are skipped so unrelated variables never leak into config.
	return ""
}
