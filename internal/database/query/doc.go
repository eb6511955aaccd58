// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

// Package query builds the parameterized SQL for the insights table.
//
// # Overview
//
// WhereBuilder accumulates WHERE conditions and their bind arguments for one
// SQL dialect. BuildPredicate turns a models.FilterSet into such a fragment:
//
//	fs := models.NewFilterSet().With("region", "Asia", "Europe")
//	where, args := query.BuildPredicate(fs, query.DialectPostgres)
//	// where: "region = ANY($1)"
//	// args:  [[]string{"Asia", "Europe"}]
//
//	where, args = query.BuildPredicate(fs, query.DialectDuckDB)
//	// where: "region IN (?, ?)"
//	// args:  ["Asia", "Europe"]
//
// # Dialects
//
// PostgreSQL binds a whole value list as one array parameter and uses
// numbered placeholders ($1, $2, ...). DuckDB expands the list into one
// positional placeholder per value.
//
// # SQL Injection Prevention
//
// Every value is bound. Column names are taken from models.FacetColumns and
// models.Columns only; FilterSet keys outside that allow-list never reach the
// SQL text.
//
// # Thread Safety
//
// WhereBuilder instances are not thread-safe. Create a new instance per query.
package query
