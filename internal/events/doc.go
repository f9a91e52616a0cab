// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

/*
Package events implements the trigger pipeline that keeps recommendations
fresh as the corpus and user activity change.

# Overview

Application code publishes small JSON events; a Watermill router consumes
them and calls the engine:

	papers.approved           approve, rebuild embeddings, rebuild related papers
	ratings.saved             upsert rating, regenerate the user when rating >= 4
	bookmarks.saved           upsert bookmark, regenerate the user
	embeddings.rebuild        rebuild embeddings
	recommendations.generate  regenerate the user

# Transports

Two transports are supported:

  - gochannel: in-process Watermill pub/sub, used by a single daemon and tests
  - nats: NATS JetStream through watermill-nats, optionally backed by an
    embedded nats-server. Events survive restarts and other processes (the
    CLI publish command) can reach the daemon.

# Router Middleware

Outer to inner:

  - Throttle (optional)
  - Deduplicator keyed by event_id (optional, LRU backed)
  - PoisonQueue: messages that still fail go to recommend.poison
  - Retry with exponential backoff
  - Recoverer: panics become errors

# Publishing

Publisher validates and serializes events and sends them through a circuit
breaker. On JetStream the event_id doubles as the Nats-Msg-Id so the
server's duplicate window drops republished events.

# Example

	transport, err := events.NewTransport(ctx, &cfg.Events, logger)
	if err != nil {
	    return err
	}
	defer transport.Close(ctx)

	router, err := events.NewRouter(&cfg.Events, transport.Publisher(), logger)
	if err != nil {
	    return err
	}
	handlers := events.NewHandlers(db, engine, logger)
	if err := router.Register(transport.Subscriber(), handlers); err != nil {
	    return err
	}
	go router.Run(ctx)
*/
package events
