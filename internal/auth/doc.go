// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

// Package auth protects the ingest endpoint.
//
// Three modes are supported, selected by security.ingest_auth:
//   - none: ingest is open (the default)
//   - jwt: an HS256 bearer token whose role claim is writer or admin
//   - basic: HTTP Basic credentials checked against a bcrypt hash
//
// Reads are never authenticated. Tokens are issued out of band, for example
// with the "insightboard token" command.
package auth
