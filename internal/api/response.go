// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/insightboard/internal/database"
	"github.com/tomtom215/insightboard/internal/logging"
	"github.com/tomtom215/insightboard/internal/validation"
)

// ErrorResponse is the envelope for every error answer.
type ErrorResponse struct {
	// Success is always false
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// APIError represents an error response.
type APIError struct {
	// Code is a machine-readable error code
	Code string `json:"code"`

	// Message is a human-readable error message
	Message string `json:"message"`

	// Details contains additional error details (optional)
	Details interface{} `json:"details,omitempty"`

	// RequestID is the request ID for tracing
	RequestID string `json:"request_id,omitempty"`
}

// Error codes for API responses
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeIngestFailed       = "INGEST_FAILED"
)

// Response header naming where read data came from.
const headerDataSource = "X-Data-Source"

// respondJSON writes data as JSON with status.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// respondError writes the error envelope.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details interface{}) {
	respondJSON(w, status, &ErrorResponse{
		Success: false,
		Error: &APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
	})
}

// authErrorResponder adapts respondError to the auth middleware.
func authErrorResponder(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondError(w, r, status, code, message, nil)
}

// writeServiceError maps a service error onto its status and code. Store and
// ingest failures get a generic message; the cause is logged only.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr        *validation.ValidationError
		unavailable *database.StoreUnavailableError
		ingestErr   *database.IngestError
	)

	switch {
	case errors.As(err, &verr):
		details := map[string]interface{}{"param": verr.Param}
		for k, v := range verr.Details {
			details[k] = v
		}
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, verr.Error(), details)

	case errors.As(err, &unavailable):
		logging.Ctx(r.Context()).Warn().Err(err).Str("reason", unavailable.Reason).Msg("Store unavailable")
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"The data store is temporarily unavailable", map[string]interface{}{"reason": unavailable.Reason})

	case errors.As(err, &ingestErr):
		logging.Ctx(r.Context()).Error().Err(err).Int("rows", ingestErr.Rows).Msg("Ingest failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeIngestFailed, "Failed to insert data", nil)

	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "An internal error occurred", nil)
	}
}
