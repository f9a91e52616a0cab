// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/paperwise/internal/recommend"
)

// Rebuilder is the part of the engine the scheduled rebuild uses.
type Rebuilder interface {
	BuildEmbeddings(ctx context.Context, opts recommend.BuildOptions) (recommend.BuildResult, error)
	GenerateForAllUsers(ctx context.Context, opts recommend.GenerateOptions) (recommend.BatchResult, error)
}

// RebuildServiceConfig holds configuration for the rebuild service.
type RebuildServiceConfig struct {
	// OnStartup runs a cycle as soon as the service starts.
	OnStartup bool

	// Interval is the time between cycles. 0 disables the schedule.
	Interval time.Duration

	// RegenerateAll regenerates every active user after the build.
	RegenerateAll bool

	// Timeout bounds one cycle.
	// Default: 1h
	Timeout time.Duration
}

// RebuildService keeps embeddings current on a schedule.
type RebuildService struct {
	engine Rebuilder
	config RebuildServiceConfig
	logger zerolog.Logger
	name   string
}

// NewRebuildService creates a rebuild service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRebuildService(engine Rebuilder, cfg RebuildServiceConfig, logger zerolog.Logger) *RebuildService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Hour
	}
	return &RebuildService{
		engine: engine,
		config: cfg,
		logger: logger.With().Str("service", "rebuild").Logger(),
		name:   "rebuild-service",
	}
}

// Serve implements suture.Service. Failed cycles are logged and retried on
// the next tick; they never stop the service.
func (s *RebuildService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("on_startup", s.config.OnStartup).
		Dur("interval", s.config.Interval).
		Bool("regenerate_all", s.config.RegenerateAll).
		Msg("rebuild service starting")

	if s.config.OnStartup {
		s.runCycle(ctx, "startup")
	}

	if s.config.Interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("rebuild service shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx, "scheduled")
		}
	}
}

func (s *RebuildService) runCycle(ctx context.Context, trigger string) {
	if err := s.cycle(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn().Err(err).Str("trigger", trigger).Msg("rebuild failed, will retry on schedule")
	}
}

// cycle rebuilds, and regenerates every user when configured.
func (s *RebuildService) cycle(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()

	if s.config.RegenerateAll {
		result, err := s.engine.GenerateForAllUsers(ctx, recommend.GenerateOptions{})
		if err != nil {
			return err
		}
		s.logger.Info().
			Int("embedded", result.Build.Embedded).
			Int("users", result.Users).
			Int("failed", result.Failed).
			Dur("duration", time.Since(start)).
			Msg("rebuild and regeneration complete")
		return nil
	}

	result, err := s.engine.BuildEmbeddings(ctx, recommend.BuildOptions{})
	if err != nil {
		return err
	}
	s.logger.Info().
		Int("embedded", result.Embedded).
		Bool("resumed", result.Resumed).
		Dur("duration", time.Since(start)).
		Msg("rebuild complete")
	return nil
}

// String returns the service name for logging.
func (s *RebuildService) String() string {
	return s.name
}
