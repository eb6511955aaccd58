// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

/*
Package api provides the HTTP layer of Insightboard.

Routes:

  - GET  /api/data       filtered rows plus facets, 50/min
  - GET  /api/insights   filtered rows only, 50/min
  - POST /api/insert     bulk ingest, 10/min, optionally authenticated
  - GET  /api/ws         WebSocket dataset_changed notifications
  - GET  /warmup         cold-start ping, 10/min
  - GET  /health, /health/live, /health/ready, not rate limited
  - GET  /metrics        Prometheus
  - GET  /swagger/*      OpenAPI UI

Every read sets X-Data-Source to store, cache or fallback. Errors share one
envelope:

	{"success": false, "error": {"code": "...", "message": "...", "details": ..., "request_id": "..."}}

ValidationError maps to 400 VALIDATION_FAILED, StoreUnavailableError to 503
SERVICE_UNAVAILABLE (writes only; reads fall back), IngestError to 500
INGEST_FAILED, and anything else to 500 INTERNAL_ERROR.

Usage Example:

	handler := api.NewHandler(svc, hub, cfg)
	router, err := api.NewRouter(handler, cfg)
	if err != nil {
	    return err
	}
	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: router.SetupChi()}
*/
package api
