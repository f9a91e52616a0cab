// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// EventRouter is a runnable event pipeline. It can run once.
type EventRouter interface {
	Run(ctx context.Context) error
	Close() error
	HealthCheck(ctx context.Context) error
}

// RouterFactory builds a fresh EventRouter.
type RouterFactory func(ctx context.Context) (EventRouter, error)

// ErrRouterStopped is returned when a router exits while the service is
// still supposed to be running.
var ErrRouterStopped = errors.New("event router stopped unexpectedly")

// RouterService runs the event pipeline. Every Serve builds a new router
// from the factory, so suture restarts get fresh subscriptions.
type RouterService struct {
	factory         RouterFactory
	shutdownTimeout time.Duration
	name            string

	mu      sync.RWMutex
	current EventRouter
}

// NewRouterService creates a router service.
func NewRouterService(factory RouterFactory, shutdownTimeout time.Duration) *RouterService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &RouterService{
		factory:         factory,
		shutdownTimeout: shutdownTimeout,
		name:            "event-router",
	}
}

// Serve implements suture.Service.
func (s *RouterService) Serve(ctx context.Context) error {
	router, err := s.factory(ctx)
	if err != nil {
		return fmt.Errorf("create event router: %w", err)
	}
	s.setCurrent(router)
	defer s.setCurrent(nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- router.Run(ctx)
	}()

	select {
	case err := <-errCh:
		_ = router.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return fmt.Errorf("event router failed: %w", err)
		}
		return ErrRouterStopped

	case <-ctx.Done():
		closeErr := router.Close()
		select {
		case <-errCh:
		case <-time.After(s.shutdownTimeout):
			return fmt.Errorf("event router did not stop within %s", s.shutdownTimeout)
		}
		if closeErr != nil {
			return fmt.Errorf("close event router: %w", closeErr)
		}
		return ctx.Err()
	}
}

func (s *RouterService) setCurrent(r EventRouter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = r
}

// HealthCheck reports the health of the running router.
func (s *RouterService) HealthCheck(ctx context.Context) error {
	s.mu.RLock()
	router := s.current
	s.mu.RUnlock()
	if router == nil {
		return fmt.Errorf("event router is not running")
	}
	return router.HealthCheck(ctx)
}

// String implements fmt.Stringer for logging.
func (s *RouterService) String() string {
	return s.name
}
