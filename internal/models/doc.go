// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

/*
Package models defines the insights record, its column allow-list and the
filter specification used by every read path.

Key Components:

  - Record: one row of the insights table. Every field is nullable.
  - Columns: the fixed schema in insert order. Anything not listed here is
    never interpolated into SQL.
  - FilterSet: the parsed query parameters of /api/data and /api/insights.
    Normalize gives a canonical form used as a cache key; Match applies the
    same semantics in memory for the fallback dataset.
  - FacetTable: sorted distinct values of the seven facet columns.

Decoding:

DecodeBatch parses an ingest body (1 to MaxBatchSize objects) and validates
every field; DecodeDataset parses the bundled dataset file, which is trusted
and may be any length. Both accept timestamps in DatasetTimeLayout
("January, 02 2006 15:04:05") or ISO 8601.

Validation errors are validation.ValidationError values naming the offending
parameter, e.g. "rows[3].intensity".
*/
package models
