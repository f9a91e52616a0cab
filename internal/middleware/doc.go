// Paperwise - Research Paper Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/paperwise

/*
Package middleware provides HTTP middleware for the ops endpoint.

  - RequestID: reuses or generates an X-Request-ID and carries it in the
    request context and as the logging correlation id
  - PrometheusMetrics: counts requests and records their duration by chi
    route pattern

Both have the func(http.Handler) http.Handler shape chi expects:

	handler := metrics.NewRouter(checks, middleware.RequestID, middleware.PrometheusMetrics)
*/
package middleware
