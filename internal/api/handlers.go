// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/insightboard/internal/config"
	"github.com/tomtom215/insightboard/internal/insights"
	"github.com/tomtom215/insightboard/internal/logging"
	"github.com/tomtom215/insightboard/internal/models"
	ws "github.com/tomtom215/insightboard/internal/websocket"
)

// maxIngestBodyBytes bounds the /api/insert body. A full batch of
// MaxBatchSize records fits comfortably.
const maxIngestBodyBytes = 1 << 20

// InsightsService is what the handlers need from insights.Service.
type InsightsService interface {
	Data(ctx context.Context, fs models.FilterSet) (insights.Result, error)
	Insights(ctx context.Context, fs models.FilterSet) (insights.Result, error)
	Ingest(ctx context.Context, records []models.Record) (int, error)
	Warmup(ctx context.Context)
	Ping(ctx context.Context) error
	BreakerState() string
}

// Handler serves the HTTP endpoints.
type Handler struct {
	svc       InsightsService
	hub       *ws.Hub
	config    *config.Config
	startTime time.Time
	upgrader  websocket.Upgrader
}

// NewHandler creates the handler set. hub may be nil, in which case the
// WebSocket endpoint answers 503.
func NewHandler(svc InsightsService, hub *ws.Hub, cfg *config.Config) *Handler {
	h := &Handler{
		svc:       svc,
		hub:       hub,
		config:    cfg,
		startTime: time.Now(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	return h
}

// checkWebSocketOrigin validates WebSocket connection origins
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// Browsers always send Origin; an empty one would bypass the CORS policy.
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	if h.config == nil {
		return true
	}

	for _, allowedOrigin := range h.config.Security.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}

	logging.Warn().Str("origin", logging.SanitizeValue(origin)).Msg("WebSocket connection rejected: origin not allowed")
	return false
}
