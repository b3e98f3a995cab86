// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aditya13504/partner-recommender/internal/domain/scoring"
)

// trainRequest mirrors the OpenAPI schema for POST /train.
type trainRequest struct {
	DatasetRef string         `json:"dataset_ref"`
	Config     map[string]any `json:"config,omitempty"`
	Params     map[string]any `json:"params,omitempty"`
}

func (r trainRequest) validate() error {
	if strings.TrimSpace(r.DatasetRef) == "" {
		return errors.New("missing dataset_ref")
	}
	return nil
}

// ModelHandler handles model lifecycle requests.
type ModelHandler struct {
	deps Dependencies
}

// NewModelHandler creates a new model handler.
func NewModelHandler(deps Dependencies) *ModelHandler {
	return &ModelHandler{deps: deps}
}

// HandleGetStatus handles GET /model/status requests.
func (h *ModelHandler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.ModelStatus(r.Context()))
}

// HandlePostReload handles POST /model/reload requests.
func (h *ModelHandler) HandlePostReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.ReloadModel(r.Context()); err != nil {
		writeError(w, http.StatusConflict, "reload_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.ModelStatus(r.Context()))
}

// HandlePostTrain handles POST /train requests. Training runs in the
// background; the response only acknowledges the kick-off.
func (h *ModelHandler) HandlePostTrain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req trainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}

	err := h.deps.Train(r.Context(), req.DatasetRef, req.Config, req.Params)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "training_started"})
	case errors.Is(err, scoring.ErrTrainingInProgress):
		writeError(w, http.StatusConflict, "training_in_progress", err)
	case errors.Is(err, scoring.ErrTrainingUnavailable):
		writeError(w, http.StatusNotImplemented, "training_unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "training_failed", err)
	}
}

// HandleGetHistory handles GET /train/history requests.
func (h *ModelHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	history := h.deps.TrainingHistory(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"runs":  history,
		"count": len(history),
	})
}
