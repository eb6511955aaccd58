// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

// Package main provides the Insightboard HTTP server
//
// @title Insightboard API
// @version 1.0
// @description Filtered rows and facet lists over the insights dataset, with batch ingest.
// @description
// @description Reads are cached and fall back to the bundled dataset when the store is
// @description unavailable; the X-Data-Source response header reports which answered.
// @description
// @description ## Rate Limiting
// @description
// @description - Reads: 50 requests per minute per IP
// @description - Ingest: 10 requests per minute per IP
// @description - Health: not rate limited
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @BasePath /
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT bearer token for POST /api/insert when INGEST_AUTH=jwt
//
// @securityDefinitions.basic BasicAuth
package main
