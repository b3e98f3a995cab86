// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aditya13504/partner-recommender/internal/domain/model"
)

// batchRequest mirrors the OpenAPI schema for POST /batch-recommend.
type batchRequest struct {
	CompanyIDs []string       `json:"company_ids"`
	TopK       int            `json:"top_k,omitempty"`
	Threshold  *float64       `json:"threshold,omitempty"`
	Filters    *model.Filters `json:"filters,omitempty"`
}

func (r batchRequest) validate() error {
	switch {
	case len(r.CompanyIDs) == 0:
		return errors.New("missing company_ids")
	case r.TopK < 0:
		return errors.New("top_k must be positive")
	case r.Threshold != nil && (*r.Threshold < 0 || *r.Threshold > 1):
		return errors.New("threshold must be in [0, 1]")
	}
	return nil
}

type batchSyncResponse struct {
	Mode    string                            `json:"mode"`
	Results map[string][]model.Recommendation `json:"results"`
	Count   int                               `json:"count"`
}

type batchAsyncResponse struct {
	Mode   string `json:"mode"`
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Poll   string `json:"poll"`
}

type batchResultsResponse struct {
	QueryCompany    string                 `json:"query_company"`
	Recommendations []model.Recommendation `json:"recommendations"`
	Count           int                    `json:"count"`
}

// BatchHandler handles batch recommendation submission and polling.
type BatchHandler struct {
	deps Dependencies
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(deps Dependencies) *BatchHandler {
	return &BatchHandler{deps: deps}
}

// HandlePostBatch handles POST /batch-recommend requests. Small batches are
// answered inline; large ones are queued and answered with 202 and a job id.
func (h *BatchHandler) HandlePostBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}

	out, err := h.deps.RecommendBatch(r.Context(), req.CompanyIDs, req.TopK, req.Threshold, req.Filters)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "batch_failed", err)
		return
	}

	if out.Async {
		writeJSON(w, http.StatusAccepted, batchAsyncResponse{
			Mode:   "async",
			JobID:  out.JobID,
			Status: "queued",
			Poll:   "/batch-recommend/{company_id}",
		})
		return
	}

	writeJSON(w, http.StatusOK, batchSyncResponse{
		Mode:    "sync",
		Results: out.Results,
		Count:   len(out.Results),
	})
}

// HandleGetBatchResults handles GET /batch-recommend/{companyID} requests,
// returning the cached results for one query company.
func (h *BatchHandler) HandleGetBatchResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	companyID := strings.TrimPrefix(r.URL.Path, "/batch-recommend/")
	if companyID == "" || strings.Contains(companyID, "/") {
		writeError(w, http.StatusBadRequest, "invalid_request", errors.New("missing company id"))
		return
	}

	recs, found, err := h.deps.BatchResults(r.Context(), companyID)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "cache_failed", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "results_not_ready", errors.New("no results for "+companyID))
		return
	}

	writeJSON(w, http.StatusOK, batchResultsResponse{
		QueryCompany:    companyID,
		Recommendations: recs,
		Count:           len(recs),
	})
}
