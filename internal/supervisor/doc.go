// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

/*
Package supervisor runs the daemon's long-lived services under a suture v4
supervisor tree.

# Tree Layout

	paperwise (root)
	├── data-layer
	│   └── rebuild-service       scheduled embedding rebuilds
	├── messaging-layer
	│   └── event-router          trigger pipeline
	└── api-layer
	    └── http-server           /metrics and /healthz

Each layer restarts its own children with exponential backoff once
FailureThreshold failures accumulate (decaying by FailureDecay per second).
Supervisor events are logged through sutureslog on top of the zerolog
slog handler.

# Usage

	tree, err := supervisor.NewSupervisorTree(
	    logging.NewSlogLogger("supervisor"),
	    supervisor.TreeConfigFrom(&cfg.Supervisor),
	)
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewRebuildService(engine, rebuildCfg, logger))
	tree.AddMessagingService(services.NewRouterService(newPipeline, timeout))
	tree.AddAPIService(services.NewHTTPServerService(server, timeout))

	return tree.Serve(ctx)

The service wrappers live in the services subpackage.
*/
package supervisor
