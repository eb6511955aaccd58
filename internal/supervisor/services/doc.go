// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

/*
Package services provides suture.Service wrappers for Insightboard components.

Each wrapper translates a component's lifecycle (ListenAndServe, a run loop,
a ticker, an already-started server) into suture's context-aware Serve:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Configurable shutdown timeout for draining connections

WebSocket Hub (WebSocketHubService):
  - Delegates to websocket.Hub.RunWithContext

Event Listener (EventListenerService):
  - Runs the dataset event subscription and hands peer events to the
    insights service, which clears its caches and notifies dashboards

Cache Janitor (CacheJanitorService):
  - Periodically drops expired entries from an in-process cache

Embedded NATS (EmbeddedNATSService):
  - Owns shutdown of an in-process NATS server started before the tree
  - Returns suture.ErrDoNotRestart if the server dies, since it cannot be
    restarted in place

Every wrapper implements fmt.Stringer so suture's event hook can name it.
*/
package services
