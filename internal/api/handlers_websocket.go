// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package api

import (
	"net/http"

	"github.com/tomtom215/insightboard/internal/logging"
	ws "github.com/tomtom215/insightboard/internal/websocket"
)

// WebSocket upgrades the connection and registers it with the hub.
//
// @Summary Live dataset notifications
// @Description Upgrades to a WebSocket that receives dataset_changed messages after every committed ingest, local or on a peer replica.
// @Tags Live
// @Success 101 "Switching Protocols"
// @Failure 403 "Origin not allowed"
// @Failure 503 {object} ErrorResponse
// @Router /api/ws [get]
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "live updates are disabled", nil)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the error response.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn)
	select {
	case h.hub.Register <- client:
		client.Start()
	case <-h.hub.Done():
		_ = conn.Close()
	}
}
