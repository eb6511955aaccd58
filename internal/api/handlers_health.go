// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/insightboard/internal/logging"
)

// HealthResponse is the body of the health endpoints.
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ReadinessResponse is the body of /health/ready.
type ReadinessResponse struct {
	Status   string  `json:"status"`
	Database bool    `json:"database_connected"`
	Breaker  string  `json:"circuit_breaker"`
	Uptime   float64 `json:"uptime"`
	Error    string  `json:"error,omitempty"`
}

const errDatabaseUnreachable = "database unreachable"

// Health pings the store. It never touches the caches or the table.
//
// @Summary Store health
// @Description Returns healthy when the store answers a ping.
// @Tags Core
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Health check failed")
		respondJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Error: errDatabaseUnreachable})
		return
	}
	respondJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// HealthLive handles liveness probe requests (Kubernetes-style)
// Returns 200 OK if the process is alive, regardless of dependencies
//
// @Summary Kubernetes liveness probe
// @Tags Core
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{Status: "alive"})
}

// HealthReady handles readiness probe requests (Kubernetes-style)
// Returns 200 OK only if the store answers a ping
//
// @Summary Kubernetes readiness probe
// @Description Returns 503 when the store cannot be reached. Reads still work from the fallback dataset in that state.
// @Tags Core
// @Produce json
// @Success 200 {object} ReadinessResponse
// @Failure 503 {object} ReadinessResponse
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	resp := ReadinessResponse{
		Status:   "ready",
		Database: true,
		Breaker:  h.svc.BreakerState(),
		Uptime:   time.Since(h.startTime).Seconds(),
	}

	status := http.StatusOK
	if err := h.svc.Ping(r.Context()); err != nil {
		status = http.StatusServiceUnavailable
		resp.Status = "not_ready"
		resp.Database = false
		resp.Error = errDatabaseUnreachable
	}
	respondJSON(w, status, resp)
}
