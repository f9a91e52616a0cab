// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/paperwise/internal/events"
	"github.com/tomtom215/paperwise/internal/logging"
	"github.com/tomtom215/paperwise/internal/metrics"
	"github.com/tomtom215/paperwise/internal/middleware"
	"github.com/tomtom215/paperwise/internal/supervisor"
	"github.com/tomtom215/paperwise/internal/supervisor/services"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the supervised daemon (scheduled rebuilds, event router, ops endpoint)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts.cfg, func(a *app) error {
				return serve(cmd.Context(), a)
			})
		},
	}
}

// serve builds the supervisor tree and runs it until ctx is canceled.
func serve(ctx context.Context, a *app) error {
	cfg := a.cfg
	logging.Info().Str("version", version).Msg("Starting Paperwise with supervisor tree")
	metrics.SetAppInfo(version)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfigFrom(&cfg.Supervisor))
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	// Data layer
	tree.AddDataService(services.NewRebuildService(a.engine, services.RebuildServiceConfig{
		OnStartup:     cfg.Recommend.RebuildOnStartup,
		Interval:      cfg.Recommend.RebuildInterval,
		RegenerateAll: cfg.Recommend.RegenerateAll,
	}, logging.WithComponent("rebuild")))

	checks := map[string]metrics.HealthCheck{
		"database": a.db.Ping,
	}

	// Messaging layer
	if cfg.Events.Enabled {
		routerSvc := services.NewRouterService(func(ctx context.Context) (services.EventRouter, error) {
			p, err := events.NewPipeline(ctx, &cfg.Events, a.db, a.engine, logging.WithComponent("events"))
			if err != nil {
				return nil, err
			}
			return p, nil
		}, cfg.Events.CloseTimeout)
		tree.AddMessagingService(routerSvc)
		checks["events"] = routerSvc.HealthCheck

		logging.Info().
			Str("transport", cfg.Events.Transport).
			Bool("embedded_server", cfg.Events.EmbeddedServer).
			Msg("Event router added to supervisor tree")
	}

	// API layer
	if cfg.Metrics.Enabled {
		server := services.NewOpsServer(cfg.Metrics.Addr, metrics.NewRouter(checks, middleware.RequestID, middleware.PrometheusMetrics))
		tree.AddAPIService(services.NewHTTPServerService(server, cfg.Supervisor.ShutdownTimeout))
		logging.Info().Str("addr", cfg.Metrics.Addr).Msg("Ops endpoint added to supervisor tree")
	}

	err = tree.Serve(ctx)

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree stopped: %w", err)
	}
	logging.Info().Msg("Paperwise stopped")
	return nil
}
