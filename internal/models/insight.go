// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/insightboard/internal/validation"
)

// TableName is the single table this service reads and writes.
const TableName = "insights"

const (
	// MaxRows caps every row query. Truncation is silent.
	MaxRows = 1000

	// MaxBatchSize is the largest accepted ingest batch.
	MaxBatchSize = 100
)

// ColumnKind is the storage type of an allow-listed column.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindInt
	KindTimestamp
)

// Column is one allow-listed column of the insights table.
type Column struct {
	// Name is the SQL column name.
	Name string
	Kind ColumnKind
	// Facet is the facet name, also accepted as the query parameter name.
	// Empty when the column is not facet-eligible.
	Facet string
}

// Columns is the fixed schema in insert order, excluding id.
var Columns = []Column{
	{Name: "end_year", Kind: KindText, Facet: "end_years"},
	{Name: "intensity", Kind: KindInt},
	{Name: "sector", Kind: KindText, Facet: "sectors"},
	{Name: "topic", Kind: KindText, Facet: "topics"},
	{Name: "insight", Kind: KindText},
	{Name: "url", Kind: KindText},
	{Name: "region", Kind: KindText, Facet: "regions"},
	{Name: "start_year", Kind: KindText},
	{Name: "impact", Kind: KindText},
	{Name: "added", Kind: KindTimestamp},
	{Name: "published", Kind: KindTimestamp},
	{Name: "country", Kind: KindText, Facet: "countries"},
	{Name: "relevance", Kind: KindInt},
	{Name: "pestle", Kind: KindText, Facet: "pestles"},
	{Name: "source", Kind: KindText, Facet: "sources"},
	{Name: "title", Kind: KindText},
	{Name: "likelihood", Kind: KindInt},
}

// FacetColumns lists the seven categorical filter columns in response order.
var FacetColumns = []Column{
	{Name: "end_year", Kind: KindText, Facet: "end_years"},
	{Name: "topic", Kind: KindText, Facet: "topics"},
	{Name: "sector", Kind: KindText, Facet: "sectors"},
	{Name: "region", Kind: KindText, Facet: "regions"},
	{Name: "pestle", Kind: KindText, Facet: "pestles"},
	{Name: "source", Kind: KindText, Facet: "sources"},
	{Name: "country", Kind: KindText, Facet: "countries"},
}

// LookupColumn returns the allow-listed column with the given SQL name.
func LookupColumn(name string) (Column, bool) {
	for _, c := range Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// IsFacetColumn reports whether name is one of the seven categorical columns.
func IsFacetColumn(name string) bool {
	for _, c := range FacetColumns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Record is one row of the insights table. Every field except ID is optional.
type Record struct {
	ID         int64      `json:"id"`
	EndYear    *string    `json:"end_year"`
	Intensity  *int64     `json:"intensity"`
	Sector     *string    `json:"sector"`
	Topic      *string    `json:"topic"`
	Insight    *string    `json:"insight"`
	URL        *string    `json:"url"`
	Region     *string    `json:"region"`
	StartYear  *string    `json:"start_year"`
	Impact     *string    `json:"impact"`
	Added      *time.Time `json:"added"`
	Published  *time.Time `json:"published"`
	Country    *string    `json:"country"`
	Relevance  *int64     `json:"relevance"`
	Pestle     *string    `json:"pestle"`
	Source     *string    `json:"source"`
	Title      *string    `json:"title"`
	Likelihood *int64     `json:"likelihood"`
}

// Text returns the value of a text column. ok is false for null or for a
// column that is not a text column.
func (r *Record) Text(column string) (string, bool) {
	p := r.textField(column)
	if p == nil || *p == nil {
		return "", false
	}
	return **p, true
}

func (r *Record) textField(column string) **string {
	switch column {
	case "end_year":
		return &r.EndYear
	case "sector":
		return &r.Sector
	case "topic":
		return &r.Topic
	case "insight":
		return &r.Insight
	case "url":
		return &r.URL
	case "region":
		return &r.Region
	case "start_year":
		return &r.StartYear
	case "impact":
		return &r.Impact
	case "country":
		return &r.Country
	case "pestle":
		return &r.Pestle
	case "source":
		return &r.Source
	case "title":
		return &r.Title
	}
	return nil
}

func (r *Record) intField(column string) **int64 {
	switch column {
	case "intensity":
		return &r.Intensity
	case "relevance":
		return &r.Relevance
	case "likelihood":
		return &r.Likelihood
	}
	return nil
}

func (r *Record) timeField(column string) **time.Time {
	switch column {
	case "added":
		return &r.Added
	case "published":
		return &r.Published
	}
	return nil
}

// ScanDest returns scan destinations for "id" followed by Columns, in order.
// database/sql writes nil for NULL into the pointer fields.
func (r *Record) ScanDest() []interface{} {
	dest := make([]interface{}, 0, len(Columns)+1)
	dest = append(dest, &r.ID)
	for _, c := range Columns {
		switch c.Kind {
		case KindInt:
			dest = append(dest, r.intField(c.Name))
		case KindTimestamp:
			dest = append(dest, r.timeField(c.Name))
		default:
			dest = append(dest, r.textField(c.Name))
		}
	}
	return dest
}

// InsertValues returns bind values in Columns order. Nulls are untyped nil.
func (r *Record) InsertValues() []interface{} {
	vals := make([]interface{}, 0, len(Columns))
	for _, c := range Columns {
		switch c.Kind {
		case KindInt:
			if p := *r.intField(c.Name); p != nil {
				vals = append(vals, *p)
				continue
			}
		case KindTimestamp:
			if p := *r.timeField(c.Name); p != nil {
				vals = append(vals, *p)
				continue
			}
		default:
			if p := *r.textField(c.Name); p != nil {
				vals = append(vals, *p)
				continue
			}
		}
		vals = append(vals, nil)
	}
	return vals
}

// recordRules holds the field constraints checked before a row is written.
// VARCHAR(255) columns are bounded so oversized values fail as client errors
// instead of store errors.
type recordRules struct {
	EndYear   string `json:"end_year" validate:"omitempty,numeric,len=4"`
	Sector    string `json:"sector" validate:"max=255"`
	Topic     string `json:"topic" validate:"max=255"`
	Region    string `json:"region" validate:"max=255"`
	StartYear string `json:"start_year" validate:"max=255"`
	Impact    string `json:"impact" validate:"max=255"`
	Country   string `json:"country" validate:"max=255"`
	Pestle    string `json:"pestle" validate:"max=255"`
	Source    string `json:"source" validate:"max=255"`
}

// Validate checks field constraints. loc prefixes the error location.
func (r *Record) Validate(loc string) error {
	deref := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	rules := recordRules{
		EndYear:   deref(r.EndYear),
		Sector:    deref(r.Sector),
		Topic:     deref(r.Topic),
		Region:    deref(r.Region),
		StartYear: deref(r.StartYear),
		Impact:    deref(r.Impact),
		Country:   deref(r.Country),
		Pestle:    deref(r.Pestle),
		Source:    deref(r.Source),
	}
	if verr := validation.ValidateStruct(&rules); verr != nil {
		return verr.ToValidationError(loc)
	}
	return nil
}

// FacetTable maps facet name (end_years, topics, ...) to the sorted distinct
// non-empty values of its column.
type FacetTable map[string][]string

// NewFacetTable returns a table with every facet present and empty.
func NewFacetTable() FacetTable {
	ft := make(FacetTable, len(FacetColumns))
	for _, c := range FacetColumns {
		ft[c.Facet] = []string{}
	}
	return ft
}

// AddValue records value under the facet for column. Null and empty values
// are dropped; duplicates are removed by Finalize.
func (ft FacetTable) AddValue(column, value string) error {
	for _, c := range FacetColumns {
		if c.Name == column {
			if value != "" {
				ft[c.Facet] = append(ft[c.Facet], value)
			}
			return nil
		}
	}
	return fmt.Errorf("facet column %q is not allow-listed", column)
}

// Finalize sorts and de-duplicates every facet list in place.
func (ft FacetTable) Finalize() FacetTable {
	for name, vals := range ft {
		ft[name] = sortedUnique(vals)
	}
	return ft
}

// BuildFacets computes the facet table over records in memory.
func BuildFacets(records []Record) FacetTable {
	ft := NewFacetTable()
	for i := range records {
		for _, c := range FacetColumns {
			if v, ok := records[i].Text(c.Name); ok {
				// Column names come from FacetColumns, so AddValue cannot fail.
				_ = ft.AddValue(c.Name, v)
			}
		}
	}
	return ft.Finalize()
}

func sortedUnique(vals []string) []string {
	if len(vals) == 0 {
		return []string{}
	}
	out := append([]string(nil), vals...)
	sort.Strings(out)
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}
