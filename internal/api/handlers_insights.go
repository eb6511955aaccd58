// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tomtom215/insightboard/internal/insights"
	"github.com/tomtom215/insightboard/internal/metrics"
	"github.com/tomtom215/insightboard/internal/models"
)

// DataResponse is the body of GET /api/data.
type DataResponse struct {
	Data    []models.Record   `json:"data"`
	Filters models.FacetTable `json:"filters"`
}

// InsertResponse is the body of a successful POST /api/insert.
type InsertResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// Data handles filtered reads with facets.
//
// @Summary Filtered insights with facets
// @Description Returns up to 1000 rows matching every supplied filter, plus the distinct values of each categorical column over the whole table.
// @Description Categorical filters accept repeated parameters (topics=oil&topics=gas). Empty values are ignored.
// @Tags Insights
// @Produce json
// @Param end_years query []string false "End years" collectionFormat(multi)
// @Param topics query []string false "Topics" collectionFormat(multi)
// @Param sectors query []string false "Sectors" collectionFormat(multi)
// @Param regions query []string false "Regions" collectionFormat(multi)
// @Param pestles query []string false "PESTLE categories" collectionFormat(multi)
// @Param sources query []string false "Sources" collectionFormat(multi)
// @Param countries query []string false "Countries" collectionFormat(multi)
// @Param intensity_min query int false "Inclusive minimum intensity"
// @Param intensity_max query int false "Inclusive maximum intensity"
// @Success 200 {object} DataResponse
// @Header 200 {string} X-Data-Source "store, cache or fallback"
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/data [get]
func (h *Handler) Data(w http.ResponseWriter, r *http.Request) {
	fs, err := models.ParseFilterSet(r.URL.Query())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	// The exact intensity set belongs to /api/insights.
	fs.Intensities = nil

	res, err := h.svc.Data(r.Context(), fs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	filters := res.Facets
	if filters == nil {
		filters = models.NewFacetTable()
	}
	w.Header().Set(headerDataSource, res.Source)
	respondJSON(w, http.StatusOK, DataResponse{
		Data:    nonNilRecords(res.Records),
		Filters: filters,
	})
}

// Insights handles filtered reads without facets.
//
// @Summary Filtered insights
// @Description Returns a JSON array of up to 1000 rows. Accepts the categorical filters and an exact intensity set (intensity=5&intensity=6).
// @Tags Insights
// @Produce json
// @Param topics query []string false "Topics" collectionFormat(multi)
// @Param sectors query []string false "Sectors" collectionFormat(multi)
// @Param intensity query []int false "Exact intensities" collectionFormat(multi)
// @Success 200 {array} models.Record
// @Header 200 {string} X-Data-Source "store, cache or fallback"
// @Failure 400 {object} ErrorResponse
// @Router /api/insights [get]
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	fs, err := models.ParseFilterSet(r.URL.Query())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res, err := h.svc.Insights(r.Context(), fs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set(headerDataSource, res.Source)
	respondJSON(w, http.StatusOK, nonNilRecords(res.Records))
}

// Insert handles bulk ingest.
//
// @Summary Insert a batch of records
// @Description Inserts 1 to 100 records in one transaction. Unknown fields are ignored; absent fields are stored as null.
// @Description Both caches are cleared before the response is sent.
// @Tags Insights
// @Accept json
// @Produce json
// @Param records body []models.Record true "Records to insert"
// @Success 201 {object} InsertResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Security BearerAuth
// @Router /api/insert [post]
func (h *Handler) Insert(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxIngestBodyBytes))
	if err != nil {
		metrics.RecordIngest("rejected", 0)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), nil)
			return
		}
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "failed to read request body", nil)
		return
	}

	records, err := models.DecodeBatch(body)
	if err != nil {
		metrics.RecordIngest("rejected", 0)
		writeServiceError(w, r, err)
		return
	}

	n, err := h.svc.Ingest(r.Context(), records)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, InsertResponse{
		Message: fmt.Sprintf("Data inserted successfully: %d records", n),
		Count:   n,
	})
}

// Warmup answers cold-start pings and primes the facet cache.
//
// @Summary Warm up the backend
// @Tags Core
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /warmup [get]
func (h *Handler) Warmup(w http.ResponseWriter, r *http.Request) {
	h.svc.Warmup(r.Context())
	respondJSON(w, http.StatusOK, MessageResponse{Message: "Backend warmed up"})
}

func nonNilRecords(records []models.Record) []models.Record {
	if records == nil {
		return []models.Record{}
	}
	return records
}

var _ InsightsService = (*insights.Service)(nil)
