// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// ExplainHandler handles match explanation requests.
type ExplainHandler struct {
	deps Dependencies
}

// NewExplainHandler creates a new explain handler.
func NewExplainHandler(deps Dependencies) *ExplainHandler {
	return &ExplainHandler{deps: deps}
}

// HandleGetExplain handles GET /explain requests. Query parameters:
// query_company, partner_company, and optional top_features.
func (h *ExplainHandler) HandleGetExplain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	queryID := strings.TrimSpace(q.Get("query_company"))
	partnerID := strings.TrimSpace(q.Get("partner_company"))
	if queryID == "" || partnerID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request",
			errors.New("query_company and partner_company are required"))
		return
	}

	topFeatures := 0
	if raw := q.Get("top_features"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request",
				errors.New("top_features must be a positive integer"))
			return
		}
		topFeatures = n
	}

	explanation, err := h.deps.Explain(r.Context(), queryID, partnerID, topFeatures)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "features_not_found", err)
			return
		}
		writeError(w, http.StatusServiceUnavailable, "explain_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, explanation)
}
