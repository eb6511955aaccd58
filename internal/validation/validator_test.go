// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package validation

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

type testRow struct {
	EndYear string `json:"end_year" validate:"omitempty,numeric,len=4"`
	Topic   string `json:"topic" validate:"max=10"`
	Rank    int    `json:"rank" validate:"gte=0,lte=5"`
}

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		input     testRow
		wantErr   bool
		wantField string
		wantMsg   string
	}{
		{name: "all valid", input: testRow{EndYear: "2027", Topic: "oil", Rank: 3}},
		{name: "empty end_year is skipped", input: testRow{EndYear: "", Topic: "gas"}},
		{
			name:      "end_year too short",
			input:     testRow{EndYear: "27"},
			wantErr:   true,
			wantField: "end_year",
			wantMsg:   "end_year must be exactly 4 characters",
		},
		{
			name:      "end_year not numeric",
			input:     testRow{EndYear: "20x7"},
			wantErr:   true,
			wantField: "end_year",
			wantMsg:   "end_year must be numeric",
		},
		{
			name:      "topic too long",
			input:     testRow{Topic: strings.Repeat("a", 11)},
			wantErr:   true,
			wantField: "topic",
			wantMsg:   "topic must be at most 10 characters",
		},
		{
			name:      "rank above range",
			input:     testRow{Rank: 9},
			wantErr:   true,
			wantField: "rank",
			wantMsg:   "rank must be less than or equal to 5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("ValidateStruct() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateStruct() expected error, got nil")
			}
			if len(err.Errors()) != 1 {
				t.Fatalf("expected 1 field error, got %d", len(err.Errors()))
			}
			fe := err.Errors()[0]
			if fe.Field() != tt.wantField {
				t.Errorf("Field() = %q, want %q", fe.Field(), tt.wantField)
			}
			if fe.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", fe.Error(), tt.wantMsg)
			}
		})
	}
}

func TestRequestValidationError_ToValidationError(t *testing.T) {
	t.Run("single field appends location", func(t *testing.T) {
		rerr := ValidateStruct(&testRow{EndYear: "1"})
		if rerr == nil {
			t.Fatal("expected error")
		}
		verr := rerr.ToValidationError("rows[2]")
		if verr.Param != "rows[2].end_year" {
			t.Errorf("Param = %q, want rows[2].end_year", verr.Param)
		}
		if verr.Details["tag"] != "len" {
			t.Errorf("Details[tag] = %v, want len", verr.Details["tag"])
		}
	})

	t.Run("multiple fields keep location", func(t *testing.T) {
		rerr := ValidateStruct(&testRow{EndYear: "1", Rank: -1})
		if rerr == nil {
			t.Fatal("expected error")
		}
		verr := rerr.ToValidationError("rows[0]")
		if verr.Param != "rows[0]" {
			t.Errorf("Param = %q, want rows[0]", verr.Param)
		}
		fields, ok := verr.Details["fields"].([]map[string]interface{})
		if !ok || len(fields) != 2 {
			t.Fatalf("Details[fields] = %#v, want 2 entries", verr.Details["fields"])
		}
	})
}

func TestValidationError(t *testing.T) {
	verr := NewValidationError("intensity_min", "must be an integer, got %q", "abc")
	if got := verr.Error(); got != `intensity_min: must be an integer, got "abc"` {
		t.Errorf("Error() = %q", got)
	}

	wrapped := fmt.Errorf("parse filters: %w", verr)
	if !IsValidationError(wrapped) {
		t.Error("IsValidationError should see through wrapping")
	}
	if IsValidationError(errors.New("plain")) {
		t.Error("IsValidationError(plain error) = true, want false")
	}

	bare := &ValidationError{Message: "body must be a JSON array"}
	if bare.Error() != "body must be a JSON array" {
		t.Errorf("Error() without param = %q", bare.Error())
	}
}
