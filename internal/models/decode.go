// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package models

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/insightboard/internal/logging"
	"github.com/tomtom215/insightboard/internal/validation"
)

// DatasetTimeLayout is the timestamp format used by the bundled dataset,
// e.g. "January, 20 2017 03:51:25".
const DatasetTimeLayout = "January, 02 2006 15:04:05"

// timeLayouts are tried in order when decoding a timestamp field.
var timeLayouts = []string{
	DatasetTimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// DecodeBatch parses an ingest request body. The body must be a JSON array of
// at most MaxBatchSize objects; every element is decoded against the fixed
// column allow-list and validated.
func DecodeBatch(body []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, validation.NewValidationError("body", "request body is empty")
	}
	if trimmed[0] != '[' {
		return nil, validation.NewValidationError("body", "must be a JSON array of records")
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, validation.NewValidationError("body", "malformed JSON array: %v", err)
	}
	if len(items) == 0 {
		return nil, validation.NewValidationError("body", "must contain at least one record")
	}
	if len(items) > MaxBatchSize {
		return nil, validation.NewValidationError("body", "batch of %d records exceeds the maximum of %d", len(items), MaxBatchSize)
	}

	records := make([]Record, 0, len(items))
	for i, raw := range items {
		loc := fmt.Sprintf("rows[%d]", i)
		rec, err := DecodeRecord(raw, loc)
		if err != nil {
			return nil, err
		}
		if err := rec.Validate(loc); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// DecodeDataset parses a dataset file (a JSON array of records of any length).
// Element errors are returned; field-level validation is not applied, matching
// how the bundled file has always been loaded.
func DecodeDataset(data []byte) ([]Record, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	records := make([]Record, 0, len(items))
	for i, raw := range items {
		rec, err := DecodeRecord(raw, fmt.Sprintf("[%d]", i))
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// DecodeRecord decodes one JSON object against Columns. Absent keys become
// null and keys outside the allow-list are ignored.
func DecodeRecord(raw json.RawMessage, loc string) (Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Record{}, validation.NewValidationError(loc, "must be a JSON object")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return Record{}, validation.NewValidationError(loc, "malformed JSON object: %v", err)
	}

	var rec Record
	for _, c := range Columns {
		val, ok := fields[c.Name]
		if !ok {
			continue
		}
		param := loc + "." + c.Name

		switch c.Kind {
		case KindInt:
			n, err := decodeInt(val, param)
			if err != nil {
				return Record{}, err
			}
			*rec.intField(c.Name) = n
		case KindTimestamp:
			ts, err := decodeTimestamp(val, param)
			if err != nil {
				return Record{}, err
			}
			*rec.timeField(c.Name) = ts
		default:
			s, err := decodeText(val, param)
			if err != nil {
				return Record{}, err
			}
			*rec.textField(c.Name) = s
		}
	}
	return rec, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decodeText accepts a string or a number (kept as its literal text).
func decodeText(raw json.RawMessage, param string) (*string, error) {
	if isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s, nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		lit := num.String()
		return &lit, nil
	}
	return nil, validation.NewValidationError(param, "must be a string")
}

// decodeInt accepts a JSON integer, a numeric string, "" (null) or null.
func decodeInt(raw json.RawMessage, param string) (*int64, error) {
	if isNull(raw) {
		return nil, nil
	}

	var text string
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		text = strings.TrimSpace(s)
		if text == "" {
			return nil, nil
		}
	} else {
		var num json.Number
		if err := json.Unmarshal(raw, &num); err != nil {
			return nil, validation.NewValidationError(param, "must be an integer")
		}
		text = num.String()
	}

	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		// Accept integral floats such as 6.0.
		f, ferr := strconv.ParseFloat(text, 64)
		if ferr != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
			return nil, validation.NewValidationError(param, "must be an integer, got %s", text)
		}
		n = int64(f)
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return nil, validation.NewValidationError(param, "integer %d is out of range", n)
	}
	return &n, nil
}

// decodeTimestamp accepts a string in one of timeLayouts. An unparseable
// string is stored as null and logged, not rejected.
func decodeTimestamp(raw json.RawMessage, param string) (*time.Time, error) {
	if isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, validation.NewValidationError(param, "must be a timestamp string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if ts, ok := ParseTimestamp(s); ok {
		return &ts, nil
	}
	logging.Warn().Str("field", param).Str("value", s).Msg("Unparseable timestamp stored as null")
	return nil, nil
}

// ParseTimestamp parses s with the dataset layout or a common ISO layout.
// Values without a zone are taken as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
