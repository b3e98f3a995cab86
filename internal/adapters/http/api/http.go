// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aditya13504/partner-recommender/internal/app"
	"github.com/aditya13504/partner-recommender/internal/domain/explain"
	"github.com/aditya13504/partner-recommender/internal/domain/model"
	"github.com/aditya13504/partner-recommender/internal/engine"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service assembly.
type Dependencies interface {
	// Recommend ranks partners for one query company.
	Recommend(ctx context.Context, req engine.Request) ([]model.Recommendation, error)

	// RecommendBatch serves small batches inline and queues large ones.
	RecommendBatch(ctx context.Context, queryIDs []string, topK int, threshold *float64, filters *model.Filters) (app.BatchOutcome, error)

	// BatchResults returns cached recommendations for one query company.
	BatchResults(ctx context.Context, queryID string) ([]model.Recommendation, bool, error)

	// Explain decomposes the match between two companies.
	Explain(ctx context.Context, queryID, partnerID string, topFeatures int) (explain.Explanation, error)

	// FeatureStoreHealthy reports feature service connectivity.
	FeatureStoreHealthy(ctx context.Context) bool

	// Model lifecycle operations.
	ModelStatus(ctx context.Context) model.ModelStatus
	ReloadModel(ctx context.Context) error
	Train(ctx context.Context, datasetRef string, cfg, params map[string]any) error
	TrainingHistory(ctx context.Context) []model.TrainingRecord

	// Stats summarizes serving state.
	Stats(ctx context.Context) engine.Stats
}

// Server wires HTTP routes for the business API.
type Server struct {
	recommendHandler *RecommendHandler
	batchHandler     *BatchHandler
	explainHandler   *ExplainHandler
	modelHandler     *ModelHandler
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		recommendHandler: NewRecommendHandler(deps),
		batchHandler:     NewBatchHandler(deps),
		explainHandler:   NewExplainHandler(deps),
		modelHandler:     NewModelHandler(deps),
		healthHandler:    NewHealthHandler(deps),
		statsHandler:     NewStatsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/recommend", MetricsMiddleware(s.recommendHandler.HandlePostRecommend, "recommend"))
	mux.HandleFunc("/batch-recommend", MetricsMiddleware(s.batchHandler.HandlePostBatch, "batch_recommend"))
	mux.HandleFunc("/batch-recommend/", MetricsMiddleware(s.batchHandler.HandleGetBatchResults, "batch_results"))
	mux.HandleFunc("/explain", MetricsMiddleware(s.explainHandler.HandleGetExplain, "explain"))
	mux.HandleFunc("/model/status", MetricsMiddleware(s.modelHandler.HandleGetStatus, "model_status"))
	mux.HandleFunc("/model/reload", MetricsMiddleware(s.modelHandler.HandlePostReload, "model_reload"))
	mux.HandleFunc("/train", MetricsMiddleware(s.modelHandler.HandlePostTrain, "train"))
	mux.HandleFunc("/train/history", MetricsMiddleware(s.modelHandler.HandleGetHistory, "train_history"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates domain not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, engine.ErrUnknownCompany) || errors.Is(err, engine.ErrFeaturesNotFound)
}
