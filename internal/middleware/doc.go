// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

/*
Package middleware provides the HTTP middleware shared by every route.

Key Components:

  - RequestID: X-Request-ID propagation into the logging context
  - PrometheusMetrics: per-route request counters and latency histograms
  - Compression: gzip for JSON responses when the client accepts it

All of them use the standard func(http.Handler) http.Handler shape, so they
can be mounted directly with chi's Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.With(middleware.Compression).Get("/api/data", h.Data)

Metrics are labelled by the chi route pattern rather than the raw path, so
query strings and unknown paths do not create new series.

See Also:

  - internal/api: router and handlers
  - internal/metrics: Prometheus instrument definitions
*/
package middleware
