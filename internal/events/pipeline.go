// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package events

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/tomtom215/paperwise/internal/config"
)

// Pipeline is one transport with a router consuming every trigger topic.
// A Watermill router runs once, so a restarted pipeline is a new Pipeline.
type Pipeline struct {
	transport *Transport
	router    *Router
	publisher *Publisher
}

// NewPipeline opens the transport and registers the handlers.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPipeline(ctx context.Context, cfg *config.EventsConfig, store Mutations, engine Recommender, logger zerolog.Logger) (*Pipeline, error) {
	transport, err := NewTransport(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	router, err := NewRouter(cfg, transport.Publisher(), logger)
	if err != nil {
		_ = transport.Close(ctx)
		return nil, err
	}
	if err := router.Register(transport.Subscriber(), NewHandlers(store, engine, logger)); err != nil {
		_ = transport.Close(ctx)
		return nil, err
	}

	return &Pipeline{
		transport: transport,
		router:    router,
		publisher: NewPublisher(transport.Publisher(), cfg.PublishBreakerFailures, logger),
	}, nil
}

// Run processes events until ctx is canceled or Close is called.
func (p *Pipeline) Run(ctx context.Context) error {
	return p.router.Run(ctx)
}

// Running closes once every handler is subscribed.
func (p *Pipeline) Running() <-chan struct{} {
	return p.router.Running()
}

// Publisher publishes onto this pipeline's transport.
func (p *Pipeline) Publisher() *Publisher {
	return p.publisher
}

// HealthCheck fails while the router is not running.
func (p *Pipeline) HealthCheck(ctx context.Context) error {
	return p.router.HealthCheck(ctx)
}

// Close stops the router, then the transport.
func (p *Pipeline) Close() error {
	return errors.Join(p.router.Close(), p.transport.Close(context.Background()))
}
