// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/paperwise/internal/logging"
	"github.com/tomtom215/paperwise/internal/metrics"
)

// PublisherBreakerName labels the publisher circuit breaker in metrics.
const PublisherBreakerName = "event-publisher"

const publisherBreakerTimeout = 30 * time.Second

// ErrPublisherOpen is returned while the publisher circuit is open.
var ErrPublisherOpen = errors.New("event publisher circuit open")

// Publisher publishes trigger events through a circuit breaker.
type Publisher struct {
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[struct{}]
	logger    zerolog.Logger
}

// NewPublisher wraps pub. failures consecutive publish errors open the
// circuit for 30 seconds.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPublisher(pub message.Publisher, failures uint32, logger zerolog.Logger) *Publisher {
	logger = logger.With().Str("component", "event-publisher").Logger()
	if failures == 0 {
		failures = 1
	}

	settings := gobreaker.Settings{
		Name:    PublisherBreakerName,
		Timeout: publisherBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
			metrics.RecordBreakerStateChange(name, from, to)
		},
	}
	metrics.InitBreaker(PublisherBreakerName)

	return &Publisher{
		publisher: pub,
		breaker:   gobreaker.NewCircuitBreaker[struct{}](settings),
		logger:    logger,
	}
}

// Publish validates and sends e on its topic.
func (p *Publisher) Publish(ctx context.Context, e *Event) error {
	msg, err := NewMessage(e)
	if err != nil {
		return err
	}
	msg.SetContext(ctx)
	msg.Metadata.Set(natsgo.MsgIdHdr, e.EventID)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set(metadataCorrelation, id)
	}

	_, err = p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.publisher.Publish(e.Topic(), msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %v", ErrPublisherOpen, err)
	}

	metrics.RecordBreakerResult(PublisherBreakerName, err)
	metrics.RecordEventPublished(e.Topic(), err)
	if err != nil {
		return fmt.Errorf("publish %s event: %w", e.Type, err)
	}

	p.logger.Debug().
		Str("event_id", e.EventID).
		Str("topic", e.Topic()).
		Msg("event published")
	return nil
}

// State returns the circuit breaker state.
func (p *Publisher) State() gobreaker.State {
	return p.breaker.State()
}
