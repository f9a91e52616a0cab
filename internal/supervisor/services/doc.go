// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

/*
Package services provides suture.Service wrappers for the daemon's
components.

  - RebuildService: rebuilds embeddings on startup and on a schedule, and
    optionally regenerates every active user afterwards
  - RouterService: runs the event pipeline, creating a fresh one on every
    (re)start
  - HTTPServerService: adapts http.Server's ListenAndServe/Shutdown to
    Serve(ctx)

Every Serve returns ctx.Err() on shutdown. Any other return is a failure
suture restarts with backoff.
*/
package services
