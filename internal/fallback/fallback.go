// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

// Package fallback serves the bundled dataset file when the store is
// unavailable.
//
// The file is read once, on first use. A missing or malformed file yields an
// empty dataset; the failure is logged and never returned. Reads apply the
// same FilterSet semantics as the store: categorical columns match by set
// membership, intensity by range and exact set, ordered by id and capped at
// models.MaxRows. Records get sequential ids in file order.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/insightboard/internal/logging"
	"github.com/tomtom215/insightboard/internal/metrics"
	"github.com/tomtom215/insightboard/internal/models"
)

// Provider holds the in-memory copy of the dataset file.
type Provider struct {
	paths    []string
	readFile func(string) ([]byte, error)

	once    sync.Once
	records []models.Record
	facets  models.FacetTable
	source  string

	warnings rate.Sometimes
}

// New creates a provider that loads the first existing file in paths.
func New(paths []string) *Provider {
	return &Provider{
		paths:    append([]string(nil), paths...),
		readFile: os.ReadFile,
		warnings: rate.Sometimes{First: 1, Interval: 30 * time.Second},
	}
}

// LoadFile reads and decodes a dataset file and numbers its records from 1.
func LoadFile(path string) ([]models.Record, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return decode(path, data)
}

func decode(path string, data []byte) ([]models.Record, error) {
	records, err := models.DecodeDataset(data)
	if err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", path, err)
	}
	for i := range records {
		records[i].ID = int64(i + 1)
	}
	return records, nil
}

// FindFile returns the first path that exists.
func FindFile(paths []string) (string, error) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("dataset file not found in %v: %w", paths, fs.ErrNotExist)
}

func (p *Provider) load() {
	p.once.Do(func() {
		p.records = []models.Record{}
		defer func() {
			p.facets = models.BuildFacets(p.records)
			metrics.FallbackRecords.Set(float64(len(p.records)))
		}()

		for _, path := range p.paths {
			if path == "" {
				continue
			}
			data, err := p.readFile(path)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				logging.Error().Err(err).Str("path", path).Msg("Failed to read fallback dataset")
				return
			}
			records, err := decode(path, data)
			if err != nil {
				logging.Error().Err(err).Str("path", path).Msg("Failed to parse fallback dataset")
				return
			}
			p.records = records
			p.source = path
			logging.Info().Int("records", len(records)).Str("path", path).Msg("Loaded fallback dataset")
			return
		}
		logging.Warn().Strs("paths", p.paths).Msg("Fallback dataset not found, serving empty results")
	})
}

// Records returns the records matching fs, in file order, capped at
// models.MaxRows.
func (p *Provider) Records(_ context.Context, filter models.FilterSet) []models.Record {
	p.load()
	out := make([]models.Record, 0, min(len(p.records), models.MaxRows))
	for i := range p.records {
		if !filter.Match(&p.records[i]) {
			continue
		}
		out = append(out, p.records[i])
		if len(out) == models.MaxRows {
			break
		}
	}
	return out
}

// Facets returns the facet table of the whole fallback dataset.
func (p *Provider) Facets(_ context.Context) models.FacetTable {
	p.load()
	return p.facets
}

// Len returns the number of loaded records.
func (p *Provider) Len() int {
	p.load()
	return len(p.records)
}

// Source returns the path the dataset was loaded from, or "" if none.
func (p *Provider) Source() string {
	p.load()
	return p.source
}

// Served records a fallback response for op and logs the cause, at most
// once per interval.
func (p *Provider) Served(ctx context.Context, op string, cause error) {
	metrics.FallbackServed.WithLabelValues(op).Inc()
	p.warnings.Do(func() {
		logging.Ctx(ctx).Warn().Err(cause).Str("operation", op).Msg("Store unavailable, serving fallback dataset")
	})
}
