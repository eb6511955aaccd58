// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

/*
Package supervisor provides process supervision for Insightboard using suture v4.

Every long-running part of a serving process runs under one tree, split
into three layers so a failure in one layer is restarted without touching
the others:

	RootSupervisor ("insightboard")
	├── DataSupervisor ("data-layer")
	│   └── CacheJanitorService (one per in-process cache)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── EmbeddedNATSService (if NATS_EMBEDDED)
	│   ├── EventListenerService (dataset events from peer replicas)
	│   └── WebSocketHubService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

# Usage

	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.Mount(supervisor.Components{
	    HTTP:     services.NewHTTPServerService(server, addr, cfg.Server.ShutdownTimeout),
	    Hub:      services.NewWebSocketHubService(hub),
	    Events:   services.NewEventListenerService(bus, svc.HandlePeerEvent),
	    Janitors: janitors,
	})
	return tree.Serve(ctx)

# Failure Handling

Each layer keeps its own failure counter, decaying over FailureDecay
seconds. Past FailureThreshold the layer waits FailureBackoff before the
next restart. A service returning suture.ErrDoNotRestart is removed
instead; the embedded NATS server uses this because a dead server cannot
be restarted in place.

The database pool is not supervised. Store outages are absorbed by the
circuit breaker and the fallback dataset in package insights.

# Debugging Shutdown Issues

If services don't stop within ShutdownTimeout, UnstoppedServiceReport
lists them.
*/
package supervisor
