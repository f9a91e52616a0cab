// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/paperwise/internal/config"
)

const testWait = 5 * time.Second

func testEventsConfig() *config.EventsConfig {
	cfg := config.Default().Events
	cfg.Transport = TransportGoChannel
	cfg.RetryCount = 0
	cfg.RetryInitialInterval = time.Millisecond
	cfg.CloseTimeout = time.Second
	return &cfg
}

// startRouter runs a gochannel router with the given handlers until the
// test ends.
func startRouter(t *testing.T, cfg *config.EventsConfig, handlers *Handlers) (*Transport, *Publisher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	transport, err := NewTransport(ctx, cfg, zerolog.Nop())
	if err != nil {
		cancel()
		t.Fatalf("NewTransport() error = %v", err)
	}
	router, err := NewRouter(cfg, transport.Publisher(), zerolog.Nop())
	if err != nil {
		cancel()
		t.Fatalf("NewRouter() error = %v", err)
	}
	if err := router.Register(transport.Subscriber(), handlers); err != nil {
		cancel()
		t.Fatalf("Register() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = router.Run(ctx)
	}()

	select {
	case <-router.Running():
	case <-time.After(testWait):
		cancel()
		t.Fatal("router did not start")
	}
	if err := router.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v while running", err)
	}

	t.Cleanup(func() {
		cancel()
		_ = router.Close()
		<-done
		_ = transport.Close(context.Background())
	})
	return transport, NewPublisher(transport.Publisher(), cfg.PublishBreakerFailures, zerolog.Nop())
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(testWait)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestRouter_DeliversEvents(t *testing.T) {
	store := &fakeStore{}
	engine := &fakeEngine{}
	_, pub := startRouter(t, testEventsConfig(), NewHandlers(store, engine, zerolog.Nop()))

	ctx := context.Background()
	if err := pub.Publish(ctx, NewRatingSaved(1, 10, 5)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := pub.Publish(ctx, NewBookmarkSaved(2, 11, "reading")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	waitFor(t, func() bool { return len(engine.generatedUsers()) == 2 })

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.ratings) != 1 || store.ratings[0].Rating != 5 {
		t.Errorf("ratings = %+v, want one rating of 5", store.ratings)
	}
	if len(store.bookmarks) != 1 || store.bookmarks[0].Folder != "reading" {
		t.Errorf("bookmarks = %+v, want one in folder reading", store.bookmarks)
	}
}

func TestRouter_DropsDuplicates(t *testing.T) {
	engine := &fakeEngine{}
	cfg := testEventsConfig()
	cfg.DeduplicationEnabled = true
	_, pub := startRouter(t, cfg, NewHandlers(&fakeStore{}, engine, zerolog.Nop()))

	ctx := context.Background()
	first := NewGenerate(1)
	for _, e := range []*Event{first, first, NewGenerate(2)} {
		if err := pub.Publish(ctx, e); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	waitFor(t, func() bool {
		got := engine.generatedUsers()
		return len(got) > 0 && got[len(got)-1] == 2
	})
	if got := engine.generatedUsers(); len(got) != 2 || got[0] != 1 {
		t.Errorf("generated = %v, want [1 2]", got)
	}
}

func TestRouter_PoisonQueue(t *testing.T) {
	cfg := testEventsConfig()
	engine := &fakeEngine{err: errors.New("model unavailable")}
	transport, pub := startRouter(t, cfg, NewHandlers(&fakeStore{}, engine, zerolog.Nop()))

	ctx, cancel := context.WithTimeout(context.Background(), testWait)
	defer cancel()
	poisoned, err := transport.Subscriber().Subscribe(ctx, cfg.PoisonQueueTopic)
	if err != nil {
		t.Fatalf("Subscribe(poison) error = %v", err)
	}

	e := NewGenerate(4)
	if err := pub.Publish(ctx, e); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case msg := <-poisoned:
		msg.Ack()
		got, err := Unmarshal(msg.Payload)
		if err != nil {
			t.Fatalf("poisoned payload: %v", err)
		}
		if got.EventID != e.EventID {
			t.Errorf("poisoned event = %q, want %q", got.EventID, e.EventID)
		}
	case <-ctx.Done():
		t.Fatal("no message reached the poison queue")
	}
}

func TestRouter_RecoversPanics(t *testing.T) {
	cfg := testEventsConfig()
	transport, pub := startRouter(t, cfg, NewHandlers(&fakeStore{}, nil, zerolog.Nop()))

	ctx, cancel := context.WithTimeout(context.Background(), testWait)
	defer cancel()
	poisoned, err := transport.Subscriber().Subscribe(ctx, cfg.PoisonQueueTopic)
	if err != nil {
		t.Fatalf("Subscribe(poison) error = %v", err)
	}

	// A nil engine panics inside the handler.
	if err := pub.Publish(ctx, NewRebuild()); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case msg := <-poisoned:
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("panicking handler did not poison its message")
	}
}

func TestSelectTopics(t *testing.T) {
	all, err := selectTopics(nil)
	if err != nil || len(all) != len(Topics) {
		t.Errorf("selectTopics(nil) = %v, %v, want every topic", all, err)
	}

	some, err := selectTopics([]string{TopicRatingSaved})
	if err != nil || len(some) != 1 || some[0] != TopicRatingSaved {
		t.Errorf("selectTopics() = %v, %v, want [ratings.saved]", some, err)
	}

	if _, err := selectTopics([]string{"papers.deleted"}); err == nil {
		t.Error("selectTopics(unknown) error = nil")
	}
}

func TestDeduplicator(t *testing.T) {
	d := NewDeduplicator(10, time.Minute)
	ctx := context.Background()

	if dup, _ := d.IsDuplicate(ctx, "a"); dup {
		t.Error("first sighting reported as duplicate")
	}
	if dup, _ := d.IsDuplicate(ctx, "a"); !dup {
		t.Error("second sighting not reported as duplicate")
	}
	if dup, _ := d.IsDuplicate(ctx, "b"); dup {
		t.Error("different key reported as duplicate")
	}
}

func TestNewTransport_Unknown(t *testing.T) {
	cfg := testEventsConfig()
	cfg.Transport = "kafka"
	if _, err := NewTransport(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Error("NewTransport(kafka) error = nil")
	}
}
