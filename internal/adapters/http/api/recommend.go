// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aditya13504/partner-recommender/internal/domain/model"
	"github.com/aditya13504/partner-recommender/internal/engine"
)

// recommendRequest mirrors the OpenAPI schema for POST /recommend.
type recommendRequest struct {
	CompanyID string         `json:"company_id"`
	TopK      int            `json:"top_k,omitempty"`
	Threshold *float64       `json:"threshold,omitempty"`
	Filters   *model.Filters `json:"filters,omitempty"`
}

func (r recommendRequest) validate() error {
	switch {
	case strings.TrimSpace(r.CompanyID) == "":
		return errors.New("missing company_id")
	case r.TopK < 0:
		return errors.New("top_k must be positive")
	case r.Threshold != nil && (*r.Threshold < 0 || *r.Threshold > 1):
		return errors.New("threshold must be in [0, 1]")
	}
	return nil
}

type recommendResponse struct {
	QueryCompany    string                 `json:"query_company"`
	Recommendations []model.Recommendation `json:"recommendations"`
	Count           int                    `json:"count"`
	GeneratedAt     time.Time              `json:"generated_at"`
}

// RecommendHandler handles single-company recommendation requests.
type RecommendHandler struct {
	deps Dependencies
}

// NewRecommendHandler creates a new recommend handler.
func NewRecommendHandler(deps Dependencies) *RecommendHandler {
	return &RecommendHandler{deps: deps}
}

// HandlePostRecommend handles POST /recommend requests.
func (h *RecommendHandler) HandlePostRecommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}

	recs, err := h.deps.Recommend(r.Context(), engine.Request{
		CompanyID: req.CompanyID,
		TopK:      req.TopK,
		Threshold: req.Threshold,
		Filters:   req.Filters,
	})
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "unknown_company", err)
			return
		}
		writeError(w, http.StatusServiceUnavailable, "recommend_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, recommendResponse{
		QueryCompany:    req.CompanyID,
		Recommendations: recs,
		Count:           len(recs),
		GeneratedAt:     time.Now().UTC(),
	})
}
