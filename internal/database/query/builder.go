// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package query

import (
	"fmt"
	"strings"

	"github.com/tomtom215/insightboard/internal/models"
)

// Dialect selects placeholder and set-membership syntax.
type Dialect int

const (
	// DialectPostgres uses $n placeholders and col = ANY($n).
	DialectPostgres Dialect = iota
	// DialectDuckDB uses ? placeholders and col IN (?, ...).
	DialectDuckDB
)

// String returns the driver label used in metrics.
func (d Dialect) String() string {
	switch d {
	case DialectDuckDB:
		return "duckdb"
	default:
		return "postgres"
	}
}

// Placeholder returns the bind marker for the n-th (1-based) argument.
func (d Dialect) Placeholder(n int) string {
	if d == DialectDuckDB {
		return "?"
	}
	return fmt.Sprintf("$%d", n)
}

// WhereBuilder constructs SQL WHERE clauses with parameterized arguments.
//
// Example usage:
//
//	wb := query.NewWhereBuilder(query.DialectPostgres)
//	wb.AddIn("topic", []string{"gas", "oil"})
//	wb.AddComparison("intensity", ">=", int64(5))
//	whereClause, args := wb.Build()
//	// topic = ANY($1) AND intensity >= $2
type WhereBuilder struct {
	dialect Dialect
	clauses []string
	args    []interface{}
}

// NewWhereBuilder creates a new WhereBuilder for dialect.
func NewWhereBuilder(dialect Dialect) *WhereBuilder {
	return &WhereBuilder{
		dialect: dialect,
		clauses: []string{},
		args:    []interface{}{},
	}
}

func (wb *WhereBuilder) bind(v interface{}) string {
	wb.args = append(wb.args, v)
	return wb.dialect.Placeholder(len(wb.args))
}

// AddComparison adds "column op value". column and op must be trusted.
func (wb *WhereBuilder) AddComparison(column, op string, value interface{}) *WhereBuilder {
	wb.clauses = append(wb.clauses, fmt.Sprintf("%s %s %s", column, op, wb.bind(value)))
	return wb
}

// AddIn adds a set-membership clause for column. An empty list adds nothing.
func (wb *WhereBuilder) AddIn(column string, values []string) *WhereBuilder {
	if len(values) == 0 {
		return wb
	}
	if wb.dialect == DialectPostgres {
		list := append([]string(nil), values...)
		wb.clauses = append(wb.clauses, fmt.Sprintf("%s = ANY(%s)", column, wb.bind(list)))
		return wb
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = wb.bind(v)
	}
	wb.clauses = append(wb.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
	return wb
}

// AddIntIn is AddIn for integer columns.
func (wb *WhereBuilder) AddIntIn(column string, values []int64) *WhereBuilder {
	if len(values) == 0 {
		return wb
	}
	if wb.dialect == DialectPostgres {
		list := append([]int64(nil), values...)
		wb.clauses = append(wb.clauses, fmt.Sprintf("%s = ANY(%s)", column, wb.bind(list)))
		return wb
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = wb.bind(v)
	}
	wb.clauses = append(wb.clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
	return wb
}

// Build constructs the final WHERE clause and returns it with arguments.
// Clauses are joined with "AND". Returns ("1=1", []) if no clauses were added.
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", []interface{}{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// BuildWithPrefix returns the WHERE clause with "WHERE " prefix.
func (wb *WhereBuilder) BuildWithPrefix() (string, []interface{}) {
	whereClause, args := wb.Build()
	return "WHERE " + whereClause, args
}

// Count returns the number of clauses added to the builder.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty returns true if no clauses have been added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}

// BuildPredicate translates fs into a WHERE fragment for dialect.
//
// Categorical columns are visited in models.FacetColumns order, then the
// intensity bounds, then the exact intensity set. A column with no values adds
// no clause. min > max is passed through and yields an empty result.
func BuildPredicate(fs models.FilterSet, dialect Dialect) (string, []interface{}) {
	wb := NewWhereBuilder(dialect)
	for _, col := range models.FacetColumns {
		wb.AddIn(col.Name, nonEmpty(fs.Values[col.Name]))
	}
	if fs.IntensityMin != nil {
		wb.AddComparison("intensity", ">=", *fs.IntensityMin)
	}
	if fs.IntensityMax != nil {
		wb.AddComparison("intensity", "<=", *fs.IntensityMax)
	}
	wb.AddIntIn("intensity", fs.Intensities)
	return wb.Build()
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// SelectColumns is the projection for every row query: id, then
// models.Columns in order, matching Record.ScanDest.
func SelectColumns() string {
	names := make([]string, 0, len(models.Columns)+1)
	names = append(names, "id")
	for _, c := range models.Columns {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

// SelectRows returns the capped row query for fs.
func SelectRows(fs models.FilterSet, dialect Dialect) (string, []interface{}) {
	where, args := BuildPredicate(fs, dialect)
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY id LIMIT %d",
		SelectColumns(), models.TableName, where, models.MaxRows)
	return sql, args
}

// Insert returns the single-row INSERT used by the prepared ingest statement.
func Insert(dialect Dialect) string {
	names := make([]string, len(models.Columns))
	placeholders := make([]string, len(models.Columns))
	for i, c := range models.Columns {
		names[i] = c.Name
		placeholders[i] = dialect.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		models.TableName, strings.Join(names, ", "), strings.Join(placeholders, ", "))
}

// SelectFacets returns one UNION ALL statement yielding (facet, value) pairs
// for every facet column. Null and empty values are excluded; rows are sorted.
func SelectFacets() string {
	branches := make([]string, len(models.FacetColumns))
	for i, c := range models.FacetColumns {
		branches[i] = fmt.Sprintf(
			"SELECT DISTINCT '%s' AS facet, %s AS value FROM %s WHERE %s IS NOT NULL AND %s <> ''",
			c.Name, c.Name, models.TableName, c.Name, c.Name)
	}
	return strings.Join(branches, " UNION ALL ") + " ORDER BY facet, value"
}
