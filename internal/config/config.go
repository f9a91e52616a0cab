// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package config

import "time"

// Config holds all application configuration.
type Config struct {
	Database   DatabaseConfig   `koanf:"database"`
	Embedding  EmbeddingConfig  `koanf:"embedding"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Events     EventsConfig     `koanf:"events"`
	Checkpoint CheckpointConfig `koanf:"checkpoint"`
	Logging    LoggingConfig    `koanf:"logging"`
	Metrics    MetricsConfig    `koanf:"metrics"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB file. ":memory:" opens a throwaway database.
	Path string `koanf:"path" validate:"required"`

	// MaxMemory is passed to DuckDB's max_memory setting, e.g. "2GB".
	MaxMemory string `koanf:"max_memory"`

	// Threads is DuckDB's worker thread count. 0 = runtime.NumCPU().
	Threads int `koanf:"threads" validate:"gte=0"`

	// QueryTimeout bounds every individual query.
	QueryTimeout time.Duration `koanf:"query_timeout" validate:"gt=0"`
}

// EmbeddingConfig selects and tunes the embedding model.
type EmbeddingConfig struct {
	// Provider is "http" for an OpenAI-compatible embeddings endpoint or
	// "hashing" for the built-in offline feature-hashing model.
	Provider string `koanf:"provider" validate:"oneof=http hashing"`

	// URL is the base URL of the embeddings service. /v1/embeddings is appended.
	URL string `koanf:"url"`

	// APIKey is sent as a bearer token when set.
	APIKey string `koanf:"api_key"`

	// Model is the model name sent in each request.
	Model string `koanf:"model" validate:"required"`

	// ModelVersion tags every stored embedding. Changing it invalidates
	// resumable build checkpoints.
	ModelVersion string `koanf:"model_version" validate:"required"`

	// Dimensions is the vector size of the hashing model.
	Dimensions int `koanf:"dimensions" validate:"gt=0"`

	// BatchSize is the number of documents per model call and per checkpoint.
	BatchSize int `koanf:"batch_size" validate:"gt=0,lte=2048"`

	// Timeout bounds a single HTTP request.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// RequestsPerSecond limits calls to the embeddings service. 0 = unlimited.
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"gte=0"`

	// Burst is the rate limiter burst size.
	Burst int `koanf:"burst" validate:"gte=1"`

	// CacheSize is the number of vectors kept in the text-hash LRU. 0 disables it.
	CacheSize int `koanf:"cache_size" validate:"gte=0"`

	// BreakerFailures is the number of consecutive failures that opens the circuit.
	BreakerFailures uint32 `koanf:"breaker_failures" validate:"gte=1"`

	// BreakerTimeout is how long the circuit stays open before probing.
	BreakerTimeout time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
}

// RecommendConfig holds the hybrid blend settings and the rebuild schedule.
type RecommendConfig struct {
	// TopK is the number of recommendations generated per user.
	TopK int `koanf:"top_k" validate:"gte=1,lte=1000"`

	// Alpha weights the content-based score.
	Alpha float64 `koanf:"alpha" validate:"gte=0"`

	// Beta weights the collaborative score.
	Beta float64 `koanf:"beta" validate:"gte=0"`

	// Gamma weights the popularity score.
	Gamma float64 `koanf:"gamma" validate:"gte=0"`

	// PopularityScope is "content" (popularity for content candidates only)
	// or "union" (for every candidate).
	PopularityScope string `koanf:"popularity_scope" validate:"oneof=content union"`

	// PredictionTimeout bounds each ranker call.
	PredictionTimeout time.Duration `koanf:"prediction_timeout" validate:"gt=0"`

	// RebuildInterval is the time between scheduled embedding rebuilds.
	// 0 disables the schedule.
	RebuildInterval time.Duration `koanf:"rebuild_interval" validate:"gte=0"`

	// RebuildOnStartup runs a build as soon as the daemon starts.
	RebuildOnStartup bool `koanf:"rebuild_on_startup"`

	// RegenerateAll regenerates every active user after a scheduled rebuild.
	RegenerateAll bool `koanf:"regenerate_all"`

	// RelatedK is the number of similar papers stored per paper.
	RelatedK int `koanf:"related_k" validate:"gte=1"`

	// DiversityEnabled turns on MMR reranking before the top-K cut.
	DiversityEnabled bool `koanf:"diversity_enabled"`

	// DiversityLambda balances relevance (1.0) against diversity (0.0).
	DiversityLambda float64 `koanf:"diversity_lambda" validate:"gte=0,lte=1"`
}

// EventsConfig configures the trigger pipeline.
type EventsConfig struct {
	// Enabled starts the event router in the daemon.
	Enabled bool `koanf:"enabled"`

	// Transport is "gochannel" (in-process) or "nats" (JetStream).
	Transport string `koanf:"transport" validate:"oneof=gochannel nats"`

	// URL is the NATS server connection URL.
	URL string `koanf:"url"`

	// EmbeddedServer starts an in-process NATS server with JetStream.
	EmbeddedServer bool `koanf:"embedded_server"`

	// StoreDir is the JetStream storage directory of the embedded server.
	StoreDir string `koanf:"store_dir"`

	// MaxMemory is the embedded server's JetStream memory limit in bytes.
	MaxMemory int64 `koanf:"max_memory" validate:"gte=0"`

	// MaxStore is the embedded server's JetStream disk limit in bytes.
	MaxStore int64 `koanf:"max_store" validate:"gte=0"`

	// DurableName is the JetStream durable consumer prefix.
	DurableName string `koanf:"durable_name"`

	// QueueGroup lets several daemons share the work.
	QueueGroup string `koanf:"queue_group"`

	// SubscribersCount is the number of concurrent subscribers per topic.
	SubscribersCount int `koanf:"subscribers_count" validate:"gte=1"`

	// Topics limits which trigger topics get a handler. Empty means all.
	Topics []string `koanf:"topics"`

	// RetryCount is the number of handler retries before the poison queue.
	RetryCount int `koanf:"retry_count" validate:"gte=0"`

	// RetryInitialInterval is the first retry backoff.
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval" validate:"gte=0"`

	// ThrottlePerSecond limits handled messages per second. 0 = unlimited.
	ThrottlePerSecond int `koanf:"throttle_per_second" validate:"gte=0"`

	// DeduplicationEnabled drops redelivered events by event_id.
	DeduplicationEnabled bool `koanf:"deduplication_enabled"`

	// DeduplicationTTL is how long an event_id is remembered.
	DeduplicationTTL time.Duration `koanf:"deduplication_ttl" validate:"gte=0"`

	// DeduplicationCapacity is the maximum number of remembered event ids.
	DeduplicationCapacity int `koanf:"deduplication_capacity" validate:"gte=0"`

	// PoisonQueueTopic receives messages that exhausted their retries.
	PoisonQueueTopic string `koanf:"poison_queue_topic" validate:"required"`

	// CloseTimeout bounds router shutdown.
	CloseTimeout time.Duration `koanf:"close_timeout" validate:"gt=0"`

	// PublishBreakerFailures is the number of consecutive publish failures
	// that opens the publisher circuit.
	PublishBreakerFailures uint32 `koanf:"publish_breaker_failures" validate:"gte=1"`
}

// CheckpointConfig configures the Badger checkpoint store.
type CheckpointConfig struct {
	// Enabled persists build progress so interrupted builds can resume.
	Enabled bool `koanf:"enabled"`

	// Path is the Badger directory.
	Path string `koanf:"path"`
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// MetricsConfig configures the ops HTTP endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr" validate:"required_if=Enabled true"`
}

// SupervisorConfig holds the suture restart policy.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gt=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gt=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"gt=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// defaultConfig returns a Config with every default applied.
// These are loaded first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:         "/data/paperwise.duckdb",
			MaxMemory:    "1GB",
			Threads:      0,
			QueryTimeout: 30 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider:          "http",
			URL:               "http://127.0.0.1:8080",
			Model:             "all-MiniLM-L6-v2",
			ModelVersion:      "bert-mini-v1",
			Dimensions:        384,
			BatchSize:         64,
			Timeout:           30 * time.Second,
			RequestsPerSecond: 10,
			Burst:             1,
			CacheSize:         4096,
			BreakerFailures:   5,
			BreakerTimeout:    30 * time.Second,
		},
		Recommend: RecommendConfig{
			TopK:              10,
			Alpha:             0.6,
			Beta:              0.3,
			Gamma:             0.1,
			PopularityScope:   "content",
			PredictionTimeout: 30 * time.Second,
			RebuildInterval:   24 * time.Hour,
			RebuildOnStartup:  false,
			RegenerateAll:     false,
			RelatedK:          10,
			DiversityEnabled:  false,
			DiversityLambda:   0.7,
		},
		Events: EventsConfig{
			Enabled:                true,
			Transport:              "gochannel",
			URL:                    "nats://127.0.0.1:4222",
			EmbeddedServer:         false,
			StoreDir:               "/data/nats/jetstream",
			MaxMemory:              256 << 20,
			MaxStore:               1 << 30,
			DurableName:            "paperwise",
			QueueGroup:             "recommenders",
			SubscribersCount:       1,
			Topics:                 []string{},
			RetryCount:             3,
			RetryInitialInterval:   100 * time.Millisecond,
			ThrottlePerSecond:      0,
			DeduplicationEnabled:   true,
			DeduplicationTTL:       10 * time.Minute,
			DeduplicationCapacity:  10000,
			PoisonQueueTopic:       "recommend.poison",
			CloseTimeout:           30 * time.Second,
			PublishBreakerFailures: 5,
		},
		Checkpoint: CheckpointConfig{
			Enabled: true,
			Path:    "/data/checkpoints",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    "127.0.0.1:9464",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// Default returns the built-in configuration without reading any file or
// environment variable.
func Default() *Config {
	return defaultConfig()
}
