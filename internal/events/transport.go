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

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"github.com/tomtom215/paperwise/internal/config"
	"github.com/tomtom215/paperwise/internal/logging"
)

// Transport names.
const (
	TransportGoChannel = "gochannel"
	TransportNATS      = "nats"
)

const (
	natsMaxReconnects   = -1
	natsReconnectWait   = 2 * time.Second
	natsReconnectBuffer = 8 << 20
	natsAckWait         = 30 * time.Second
	natsMaxDeliver      = 5
	goChannelBuffer     = 64
)

// Transport owns the publisher and subscriber of one transport, plus the
// embedded NATS server when one was started.
type Transport struct {
	name       string
	publisher  message.Publisher
	subscriber message.Subscriber
	server     *EmbeddedServer
	logger     zerolog.Logger
}

// NewTransport opens the transport selected by cfg.Transport.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTransport(ctx context.Context, cfg *config.EventsConfig, logger zerolog.Logger) (*Transport, error) {
	logger = logger.With().Str("component", "event-transport").Logger()
	wmLogger := logging.NewWatermillAdapter(logger)

	switch cfg.Transport {
	case TransportGoChannel:
		pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: goChannelBuffer}, wmLogger)
		return &Transport{
			name:       TransportGoChannel,
			publisher:  pubSub,
			subscriber: pubSub,
			logger:     logger,
		}, nil
	case TransportNATS:
		return newNATSTransport(ctx, cfg, logger, wmLogger)
	default:
		return nil, fmt.Errorf("unknown event transport %q", cfg.Transport)
	}
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func newNATSTransport(ctx context.Context, cfg *config.EventsConfig, logger zerolog.Logger, wmLogger watermill.LoggerAdapter) (*Transport, error) {
	t := &Transport{name: TransportNATS, logger: logger}

	natsURL := cfg.URL
	if cfg.EmbeddedServer {
		srv, err := NewEmbeddedServer(cfg)
		if err != nil {
			return nil, err
		}
		t.server = srv
		natsURL = srv.ClientURL()
		logger.Info().Str("url", natsURL).Msg("embedded NATS server started")
	}

	natsOpts := natsOptions(logger)

	if err := ensureStream(ctx, natsURL, cfg.PoisonQueueTopic, natsOpts); err != nil {
		_ = t.Close(ctx)
		return nil, err
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         natsURL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, wmLogger)
	if err != nil {
		_ = t.Close(ctx)
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}
	t.publisher = pub

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              natsURL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: cfg.SubscribersCount,
		AckWaitTimeout:   natsAckWait,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.BindStream(StreamName),
				natsgo.DeliverAll(),
				natsgo.AckExplicit(),
				natsgo.MaxDeliver(natsMaxDeliver),
				natsgo.AckWait(natsAckWait),
			},
			DurablePrefix: cfg.DurableName,
		},
	}, wmLogger)
	if err != nil {
		_ = t.Close(ctx)
		return nil, fmt.Errorf("create NATS subscriber: %w", err)
	}
	t.subscriber = sub

	return t, nil
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func natsOptions(logger zerolog.Logger) []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name("paperwise"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(natsMaxReconnects),
		natsgo.ReconnectWait(natsReconnectWait),
		natsgo.ReconnectBufSize(natsReconnectBuffer),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}
}

// ensureStream creates or updates the trigger stream over a short-lived
// connection.
func ensureStream(ctx context.Context, natsURL, poisonTopic string, opts []natsgo.Option) error {
	nc, err := natsgo.Connect(natsURL, opts...)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}
	initializer, err := NewStreamInitializer(js, DefaultStreamConfig(poisonTopic))
	if err != nil {
		return err
	}
	if _, err := initializer.EnsureStream(ctx); err != nil {
		return err
	}
	return nil
}

// Name returns the transport name.
func (t *Transport) Name() string {
	return t.name
}

// Publisher returns the raw Watermill publisher.
func (t *Transport) Publisher() message.Publisher {
	return t.publisher
}

// Subscriber returns the raw Watermill subscriber.
func (t *Transport) Subscriber() message.Subscriber {
	return t.subscriber
}

// Close closes the subscriber and publisher, then stops the embedded
// server. For gochannel both are the same value and it is closed once.
func (t *Transport) Close(ctx context.Context) error {
	var errs []error
	if t.subscriber != nil {
		if err := t.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	if t.publisher != nil && t.name != TransportGoChannel {
		if err := t.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if t.server != nil {
		if err := t.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown NATS server: %w", err))
		}
	}
	return errors.Join(errs...)
}
