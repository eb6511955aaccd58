// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package models

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/tomtom215/insightboard/internal/validation"
)

// Query parameters for the intensity filters.
const (
	ParamIntensityMin = "intensity_min"
	ParamIntensityMax = "intensity_max"
	ParamIntensity    = "intensity"
)

// FilterSet is the parsed filtering intent of one read request.
//
// Values is keyed by allow-listed column name. A missing or empty list means
// no constraint on that column, never "match nothing".
type FilterSet struct {
	Values       map[string][]string `json:"values,omitempty"`
	IntensityMin *int64              `json:"intensity_min,omitempty"`
	IntensityMax *int64              `json:"intensity_max,omitempty"`
	Intensities  []int64             `json:"intensities,omitempty"`
}

// NewFilterSet returns an empty FilterSet.
func NewFilterSet() FilterSet {
	return FilterSet{Values: map[string][]string{}}
}

// With returns a copy of fs with values appended to column.
// Columns outside the facet allow-list are ignored.
func (fs FilterSet) With(column string, values ...string) FilterSet {
	out := fs.clone()
	if !IsFacetColumn(column) {
		return out
	}
	for _, v := range values {
		if v != "" {
			out.Values[column] = append(out.Values[column], v)
		}
	}
	return out
}

// IsEmpty reports whether fs adds no predicate at all.
func (fs FilterSet) IsEmpty() bool {
	for _, vals := range fs.Values {
		if len(vals) > 0 {
			return false
		}
	}
	return fs.IntensityMin == nil && fs.IntensityMax == nil && len(fs.Intensities) == 0
}

// ParseFilterSet decodes request parameters. Categorical columns are read from
// their facet name (topics=A&topics=B) and from the bare column name (topic=A).
// Unknown parameters are ignored.
func ParseFilterSet(q url.Values) (FilterSet, error) {
	fs := NewFilterSet()

	for _, c := range FacetColumns {
		var vals []string
		for _, key := range []string{c.Facet, c.Name} {
			for _, v := range q[key] {
				if v != "" {
					vals = append(vals, v)
				}
			}
		}
		if len(vals) > 0 {
			fs.Values[c.Name] = vals
		}
	}

	var err error
	if fs.IntensityMin, err = singleInt(q, ParamIntensityMin); err != nil {
		return FilterSet{}, err
	}
	if fs.IntensityMax, err = singleInt(q, ParamIntensityMax); err != nil {
		return FilterSet{}, err
	}

	for _, raw := range q[ParamIntensity] {
		if raw == "" {
			continue
		}
		n, perr := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if perr != nil {
			return FilterSet{}, validation.NewValidationError(ParamIntensity, "must be an integer, got %q", raw)
		}
		fs.Intensities = append(fs.Intensities, n)
	}

	return fs, nil
}

// singleInt reads an optional integer parameter that may appear at most once.
func singleInt(q url.Values, key string) (*int64, error) {
	var present []string
	for _, v := range q[key] {
		if v != "" {
			present = append(present, v)
		}
	}
	switch len(present) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, validation.NewValidationError(key, "must be given at most once, got %d values", len(present))
	}

	n, err := strconv.ParseInt(strings.TrimSpace(present[0]), 10, 64)
	if err != nil {
		return nil, validation.NewValidationError(key, "must be an integer, got %q", present[0])
	}
	return &n, nil
}

// Normalize returns a copy with every value list sorted and de-duplicated.
// Two FilterSets that select the same rows normalize identically, which makes
// the result usable as a cache key.
func (fs FilterSet) Normalize() FilterSet {
	out := FilterSet{
		Values:       make(map[string][]string, len(fs.Values)),
		IntensityMin: fs.IntensityMin,
		IntensityMax: fs.IntensityMax,
	}
	for col, vals := range fs.Values {
		if len(vals) > 0 {
			out.Values[col] = sortedUnique(vals)
		}
	}
	if len(fs.Intensities) > 0 {
		ints := append([]int64(nil), fs.Intensities...)
		sort.Slice(ints, func(i, j int) bool { return ints[i] < ints[j] })
		n := 1
		for i := 1; i < len(ints); i++ {
			if ints[i] != ints[n-1] {
				ints[n] = ints[i]
				n++
			}
		}
		out.Intensities = ints[:n]
	}
	return out
}

// Match evaluates fs against one record in memory with the same semantics
// the SQL predicate has: a null column never matches a constraint on it.
func (fs FilterSet) Match(r *Record) bool {
	for _, c := range FacetColumns {
		accepted := fs.Values[c.Name]
		if len(accepted) == 0 {
			continue
		}
		v, ok := r.Text(c.Name)
		if !ok || !containsString(accepted, v) {
			return false
		}
	}

	if fs.IntensityMin != nil || fs.IntensityMax != nil || len(fs.Intensities) > 0 {
		if r.Intensity == nil {
			return false
		}
		n := *r.Intensity
		if fs.IntensityMin != nil && n < *fs.IntensityMin {
			return false
		}
		if fs.IntensityMax != nil && n > *fs.IntensityMax {
			return false
		}
		if len(fs.Intensities) > 0 && !containsInt(fs.Intensities, n) {
			return false
		}
	}
	return true
}

func (fs FilterSet) clone() FilterSet {
	out := FilterSet{
		Values:       make(map[string][]string, len(fs.Values)),
		IntensityMin: fs.IntensityMin,
		IntensityMax: fs.IntensityMax,
		Intensities:  append([]int64(nil), fs.Intensities...),
	}
	for col, vals := range fs.Values {
		out.Values[col] = append([]string(nil), vals...)
	}
	return out
}

func containsString(vals []string, v string) bool {
	for _, s := range vals {
		if s == v {
			return true
		}
	}
	return false
}

func containsInt(vals []int64, v int64) bool {
	for _, n := range vals {
		if n == v {
			return true
		}
	}
	return false
}
