// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

/*
Command insightboard runs the insights dashboard data service and its
maintenance tasks.

# Commands

	insightboard serve                  run the HTTP service
	insightboard init-db [--reset]      create (or drop and recreate) the insights table
	insightboard seed [--file PATH]     replace the table contents with a dataset file
	insightboard token [--role writer]  sign a JWT for POST /api/insert
	insightboard version

# Configuration

Every command loads, in increasing priority: built-in defaults, an optional
config.yaml (--config or CONFIG_PATH), a dotenv file (--env-file, default
.env) and the process environment. See internal/config for the variables.

# Process Supervision

serve runs every long-lived component under a suture tree:

	RootSupervisor ("insightboard")
	├── DataSupervisor ("data-layer")
	│   └── cache janitors (memory backend only)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── embedded NATS (NATS_EMBEDDED=true)
	│   ├── dataset event listener
	│   └── WebSocket hub
	└── APISupervisor ("api-layer")
	    └── HTTP server

SIGINT or SIGTERM cancels the tree. The HTTP server drains in-flight
requests for SHUTDOWN_TIMEOUT before the store pool and caches close.

# Example

Local development on an embedded DuckDB file:

	export DB_DRIVER=duckdb
	export DUCKDB_PATH=./data/insights.duckdb
	insightboard seed --file data.json
	insightboard serve

Production against Postgres with JWT-protected ingest:

	export DATABASE_URL=postgres://dashboard:secret@db:5432/dashboard_data
	export INGEST_AUTH=jwt
	export JWT_SECRET=$(openssl rand -base64 32)
	insightboard serve
*/
package main
