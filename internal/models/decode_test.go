// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package models

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/insightboard/internal/validation"
)

const sampleRow = `{
	"end_year": "",
	"intensity": 6,
	"sector": "Energy",
	"topic": "gas",
	"insight": "Annual Energy Outlook",
	"url": "http://www.eia.gov/outlooks/aeo/",
	"region": "Northern America",
	"start_year": "",
	"impact": "",
	"added": "January, 20 2017 03:51:25",
	"published": "January, 09 2017 00:00:00",
	"country": "United States of America",
	"relevance": 2,
	"pestle": "Industries",
	"source": "EIA",
	"title": "U.S. natural gas consumption is expected to increase.",
	"likelihood": 3,
	"swot": "ignored"
}`

func TestDecodeBatch_SampleRow(t *testing.T) {
	t.Parallel()

	records, err := DecodeBatch([]byte("[" + sampleRow + "]"))
	if err != nil {
		t.Fatalf("DecodeBatch() error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.Intensity == nil || *rec.Intensity != 6 {
		t.Errorf("Intensity = %v, want 6", rec.Intensity)
	}
	if rec.Topic == nil || *rec.Topic != "gas" {
		t.Errorf("Topic = %v, want gas", rec.Topic)
	}
	wantAdded := time.Date(2017, 1, 20, 3, 51, 25, 0, time.UTC)
	if rec.Added == nil || !rec.Added.Equal(wantAdded) {
		t.Errorf("Added = %v, want %v", rec.Added, wantAdded)
	}
	if rec.EndYear == nil || *rec.EndYear != "" {
		t.Errorf("EndYear = %v, want empty string", rec.EndYear)
	}
}

func TestDecodeBatch_Rejections(t *testing.T) {
	t.Parallel()

	tooMany := "[" + strings.TrimSuffix(strings.Repeat("{},", MaxBatchSize+1), ",") + "]"
	exactlyMax := "[" + strings.TrimSuffix(strings.Repeat("{},", MaxBatchSize), ",") + "]"

	tests := []struct {
		name      string
		body      string
		wantParam string
		wantMsg   string
	}{
		{name: "empty body", body: "  ", wantParam: "body"},
		{name: "object body", body: `{"topic":"oil"}`, wantParam: "body", wantMsg: "JSON array"},
		{name: "scalar body", body: `42`, wantParam: "body"},
		{name: "malformed array", body: `[{"topic":]`, wantParam: "body"},
		{name: "empty array", body: `[]`, wantParam: "body", wantMsg: "at least one"},
		{name: "over the batch limit", body: tooMany, wantParam: "body", wantMsg: "101"},
		{name: "non-object element", body: `[{}, 3]`, wantParam: "rows[1]"},
		{name: "bad integer", body: `[{"intensity":"high"}]`, wantParam: "rows[0].intensity"},
		{name: "fractional integer", body: `[{"likelihood":2.5}]`, wantParam: "rows[0].likelihood"},
		{name: "integer out of range", body: `[{"relevance":99999999999}]`, wantParam: "rows[0].relevance"},
		{name: "boolean text", body: `[{"topic":true}]`, wantParam: "rows[0].topic"},
		{name: "numeric timestamp", body: `[{"added":12}]`, wantParam: "rows[0].added"},
		{name: "end_year rule", body: `[{"end_year":"20300"}]`, wantParam: "rows[0].end_year"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBatch([]byte(tt.body))
			var verr *validation.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Param != tt.wantParam {
				t.Errorf("Param = %q, want %q", verr.Param, tt.wantParam)
			}
			if tt.wantMsg != "" && !strings.Contains(verr.Message, tt.wantMsg) {
				t.Errorf("Message = %q, want it to contain %q", verr.Message, tt.wantMsg)
			}
		})
	}

	if recs, err := DecodeBatch([]byte(exactlyMax)); err != nil || len(recs) != MaxBatchSize {
		t.Errorf("batch of %d: got %d records, err %v", MaxBatchSize, len(recs), err)
	}
}

func TestDecodeRecord_Tolerance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, r Record)
	}{
		{
			name: "empty string integer is null",
			raw:  `{"intensity":""}`,
			check: func(t *testing.T, r Record) {
				if r.Intensity != nil {
					t.Errorf("Intensity = %v, want nil", *r.Intensity)
				}
			},
		},
		{
			name: "numeric string integer",
			raw:  `{"likelihood":" 4 "}`,
			check: func(t *testing.T, r Record) {
				if r.Likelihood == nil || *r.Likelihood != 4 {
					t.Errorf("Likelihood = %v, want 4", r.Likelihood)
				}
			},
		},
		{
			name: "integral float",
			raw:  `{"relevance":3.0}`,
			check: func(t *testing.T, r Record) {
				if r.Relevance == nil || *r.Relevance != 3 {
					t.Errorf("Relevance = %v, want 3", r.Relevance)
				}
			},
		},
		{
			name: "numeric end_year kept as text",
			raw:  `{"end_year":2030}`,
			check: func(t *testing.T, r Record) {
				if r.EndYear == nil || *r.EndYear != "2030" {
					t.Errorf("EndYear = %v, want 2030", r.EndYear)
				}
			},
		},
		{
			name: "unparseable timestamp becomes null",
			raw:  `{"published":"sometime in 2017"}`,
			check: func(t *testing.T, r Record) {
				if r.Published != nil {
					t.Errorf("Published = %v, want nil", r.Published)
				}
			},
		},
		{
			name: "rfc3339 timestamp",
			raw:  `{"added":"2017-01-20T03:51:25Z"}`,
			check: func(t *testing.T, r Record) {
				if r.Added == nil || r.Added.Hour() != 3 {
					t.Errorf("Added = %v", r.Added)
				}
			},
		},
		{
			name: "explicit nulls",
			raw:  `{"topic":null,"added":null,"intensity":null}`,
			check: func(t *testing.T, r Record) {
				if r.Topic != nil || r.Added != nil || r.Intensity != nil {
					t.Errorf("expected all nil, got %+v", r)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := DecodeRecord([]byte(tt.raw), "rows[0]")
			if err != nil {
				t.Fatalf("DecodeRecord() error: %v", err)
			}
			tt.check(t, rec)
		})
	}
}

func TestDecodeDataset(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < MaxBatchSize+50; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"topic":"t%d"}`, i)
	}
	sb.WriteString("]")

	records, err := DecodeDataset([]byte(sb.String()))
	if err != nil {
		t.Fatalf("DecodeDataset() error: %v", err)
	}
	if len(records) != MaxBatchSize+50 {
		t.Errorf("expected %d records, got %d", MaxBatchSize+50, len(records))
	}

	if _, err := DecodeDataset([]byte(`{"not":"an array"}`)); err == nil {
		t.Error("DecodeDataset(object) should fail")
	}
}
