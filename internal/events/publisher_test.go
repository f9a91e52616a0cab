// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/paperwise/internal/logging"
)

type recordingPublisher struct {
	mu     sync.Mutex
	err    error
	calls  int
	topics []string
	msgs   []*message.Message
}

func (p *recordingPublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return p.err
	}
	for _, m := range msgs {
		p.topics = append(p.topics, topic)
		p.msgs = append(p.msgs, m)
	}
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestPublisher_Publish(t *testing.T) {
	raw := &recordingPublisher{}
	pub := NewPublisher(raw, 3, zerolog.Nop())

	ctx := logging.ContextWithCorrelationID(context.Background(), "corr-1")
	e := NewPaperApproved(12)
	if err := pub.Publish(ctx, e); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(raw.msgs) != 1 || raw.topics[0] != TopicPaperApproved {
		t.Fatalf("published %d messages on %v, want 1 on %s", len(raw.msgs), raw.topics, TopicPaperApproved)
	}
	msg := raw.msgs[0]
	if msg.Metadata.Get(natsgo.MsgIdHdr) != e.EventID {
		t.Errorf("Nats-Msg-Id = %q, want %q", msg.Metadata.Get(natsgo.MsgIdHdr), e.EventID)
	}
	if msg.Metadata.Get(metadataCorrelation) != "corr-1" {
		t.Errorf("correlation id = %q, want corr-1", msg.Metadata.Get(metadataCorrelation))
	}
}

func TestPublisher_RejectsInvalid(t *testing.T) {
	raw := &recordingPublisher{}
	pub := NewPublisher(raw, 3, zerolog.Nop())

	if err := pub.Publish(context.Background(), NewGenerate(0)); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("Publish() error = %v, want ErrInvalidEvent", err)
	}
	if raw.calls != 0 {
		t.Errorf("publisher called %d times for an invalid event", raw.calls)
	}
}

func TestPublisher_BreakerOpens(t *testing.T) {
	errDown := errors.New("nats: no servers available")
	raw := &recordingPublisher{err: errDown}
	pub := NewPublisher(raw, 2, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := pub.Publish(ctx, NewRebuild()); !errors.Is(err, errDown) {
			t.Fatalf("Publish() #%d error = %v, want %v", i+1, err, errDown)
		}
	}
	if pub.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open", pub.State())
	}

	if err := pub.Publish(ctx, NewRebuild()); !errors.Is(err, ErrPublisherOpen) {
		t.Fatalf("Publish() error = %v, want ErrPublisherOpen", err)
	}
	if raw.calls != 2 {
		t.Errorf("publisher called %d times, want 2", raw.calls)
	}
}
