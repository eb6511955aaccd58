// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

/*
Package websocket pushes dataset change notifications to connected dashboards.

Dashboards open a WebSocket on /api/ws and refetch /api/data when they receive
a dataset_changed message, instead of polling.

Key Components:

  - Hub: owns the set of connected clients and fans out broadcasts
  - Client: one connection with a read pump and a write pump
  - Message: typed JSON envelope

Architecture:

	┌──────────┐
	│   Hub    │ ← Broadcasts to all clients
	└────┬─────┘
	     │
	┌────┴─────┬─────────┬─────────┐
	│          │         │         │
	│ Client1  │ Client2 │ Client3 │ Client4
	│          │         │         │
	└──────────┴─────────┴─────────┘

Each client has two goroutines:
  - readPump: reads from the socket, answers application pings, extends the
    read deadline on pong
  - writePump: writes queued messages and sends keepalive pings

Message Types:

  - dataset_changed: rows were committed, locally or on a peer
  - ping / pong: application level keepalive from the browser

Example dataset_changed message:

	{
	  "type": "dataset_changed",
	  "data": {"count": 12, "origin": "local", "timestamp": "2026-01-10T12:00:00Z"}
	}

Lifecycle:

The hub runs under suture supervision through RunWithContext. On context
cancellation every client channel is closed, which makes each write pump send
a close frame and exit.

Thread Safety:

All Hub methods are safe for concurrent use. Broadcasts never block: when the
hub queue is full the message is dropped and logged, and a client whose send
buffer is full is disconnected.
*/
package websocket
