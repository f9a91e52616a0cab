// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package events

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"

	"github.com/tomtom215/paperwise/internal/cache"
	"github.com/tomtom215/paperwise/internal/config"
	"github.com/tomtom215/paperwise/internal/logging"
	"github.com/tomtom215/paperwise/internal/metrics"
)

const (
	retryMaxInterval = 30 * time.Second
	retryMultiplier  = 2.0
)

// Deduplicator implements middleware.ExpiringKeyRepository on the LRU
// cache. Capacity bounds memory; the TTL bounds how long an id is
// remembered.
type Deduplicator struct {
	cache *cache.LRU[struct{}]
}

// NewDeduplicator creates a deduplicator.
func NewDeduplicator(capacity int, ttl time.Duration) *Deduplicator {
	return &Deduplicator{cache: cache.NewLRU[struct{}](capacity, ttl)}
}

// IsDuplicate reports whether key was seen within the TTL and records it.
func (d *Deduplicator) IsDuplicate(_ context.Context, key string) (bool, error) {
	dup := d.cache.IsDuplicate(key)
	if dup {
		metrics.RecordEventDeduplicated()
	}
	return dup, nil
}

// Router wraps the Watermill Router with the trigger middleware stack.
type Router struct {
	router   *message.Router
	config   config.EventsConfig
	logger   zerolog.Logger
	handlers map[string]*message.Handler
	running  atomic.Bool
}

// NewRouter creates a router. poisonPublisher receives messages that fail
// after every retry; nil disables the poison queue.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRouter(cfg *config.EventsConfig, poisonPublisher message.Publisher, logger zerolog.Logger) (*Router, error) {
	logger = logger.With().Str("component", "event-router").Logger()
	wmLogger := logging.NewWatermillAdapter(logger)

	wmRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	r := &Router{
		router:   wmRouter,
		config:   *cfg,
		logger:   logger,
		handlers: make(map[string]*message.Handler),
	}

	// Middleware runs in the order added, outermost first.
	if cfg.ThrottlePerSecond > 0 {
		throttle := middleware.NewThrottle(int64(cfg.ThrottlePerSecond), time.Second)
		wmRouter.AddMiddleware(throttle.Middleware)
	}

	if cfg.DeduplicationEnabled {
		dedup := middleware.Deduplicator{
			KeyFactory: eventKey,
			Repository: NewDeduplicator(cfg.DeduplicationCapacity, cfg.DeduplicationTTL),
		}
		wmRouter.AddMiddleware(dedup.Middleware)
	}

	if poisonPublisher != nil && cfg.PoisonQueueTopic != "" {
		poisonQueue, err := middleware.PoisonQueue(poisonPublisher, cfg.PoisonQueueTopic)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		wmRouter.AddMiddleware(poisonQueue)
	}

	retry := middleware.Retry{
		MaxRetries:      cfg.RetryCount,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     retryMaxInterval,
		Multiplier:      retryMultiplier,
		Logger:          wmLogger,
	}
	wmRouter.AddMiddleware(retry.Middleware)

	wmRouter.AddMiddleware(middleware.Recoverer)

	return r, nil
}

// AddConsumerHandler registers a handler that produces no output messages.
func (r *Router) AddConsumerHandler(name, topic string, subscriber message.Subscriber, handler message.NoPublishHandlerFunc) {
	r.handlers[name] = r.router.AddConsumerHandler(name, topic, subscriber, handler)
}

// Register adds a consumer for every configured trigger topic. An empty
// Topics list selects them all.
func (r *Router) Register(subscriber message.Subscriber, handlers *Handlers) error {
	topics, err := selectTopics(r.config.Topics)
	if err != nil {
		return err
	}
	for _, topic := range topics {
		r.AddConsumerHandler("paperwise."+topic, topic, subscriber, handlers.MessageHandler(topic))
	}
	r.logger.Info().Strs("topics", topics).Msg("registered event handlers")
	return nil
}

func selectTopics(configured []string) ([]string, error) {
	if len(configured) == 0 {
		return Topics, nil
	}
	known := make(map[string]struct{}, len(Topics))
	for _, t := range Topics {
		known[t] = struct{}{}
	}
	out := make([]string, 0, len(configured))
	for _, t := range configured {
		if _, ok := known[t]; !ok {
			return nil, fmt.Errorf("unknown event topic %q", t)
		}
		out = append(out, t)
	}
	return out, nil
}

// Run starts the router and blocks until ctx is canceled or Close is called.
func (r *Router) Run(ctx context.Context) error {
	r.running.Store(true)
	defer r.running.Store(false)
	return r.router.Run(ctx)
}

// Running returns a channel that closes once every handler is subscribed.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// IsRunning reports whether the router is processing messages.
func (r *Router) IsRunning() bool {
	return r.running.Load()
}

// Close stops the router, waiting up to CloseTimeout for in-flight
// messages.
func (r *Router) Close() error {
	return r.router.Close()
}

// HealthCheck fails while the router is not running.
func (r *Router) HealthCheck(_ context.Context) error {
	if !r.IsRunning() {
		return fmt.Errorf("event router is not running")
	}
	return nil
}
