package model

import "time"

// Score provenance values recorded in recommendation metadata.
const (
	ScoredByModel    = "model"
	ScoredByFallback = "fallback"
)

// Reasoning explains why a candidate was recommended.
type Reasoning struct {
	CompatibilityFactors map[string]float64 `json:"compatibility_factors"`
	TimingScore          float64            `json:"timing_score"`
	BehavioralAlignment  float64            `json:"behavioral_alignment"`
}

// Metadata carries request-scoped context for a recommendation.
type Metadata struct {
	QueryID      string    `json:"query_id"`
	QueryCompany string    `json:"query_company"`
	GeneratedAt  time.Time `json:"generated_at"`
	ScoredBy     string    `json:"scored_by"` // "model" or "fallback"
}

// Recommendation is one ranked partner candidate. It is transient and never
// persisted by the engine itself.
type Recommendation struct {
	CompanyID  string    `json:"company_id"`
	MatchScore float64   `json:"match_score"` // [0, 1]
	Confidence float64   `json:"confidence"`  // [0, 1]
	Reasoning  Reasoning `json:"reasoning"`
	Metadata   Metadata  `json:"metadata"`
}

// TrainingRecord is one append-only entry in the model training history.
type TrainingRecord struct {
	Timestamp    time.Time      `json:"timestamp"`
	DatasetRef   string         `json:"dataset_ref"`
	Config       map[string]any `json:"config,omitempty"`
	Params       map[string]any `json:"params,omitempty"`
	ModelVersion string         `json:"model_version"`
	Status       string         `json:"status"` // "succeeded" or "failed"
	Error        string         `json:"error,omitempty"`
}

// Training record status values.
const (
	TrainingSucceeded = "succeeded"
	TrainingFailed    = "failed"
)

// ModelStatus reports the scoring model lifecycle state.
type ModelStatus struct {
	Loaded               bool      `json:"loaded"`
	Version              string    `json:"version"`
	LoadedAt             time.Time `json:"loaded_at,omitempty"`
	AcceleratorAvailable bool      `json:"accelerator_available"`
	TrainingActive       bool      `json:"training_active"`
	LastTrainedAt        time.Time `json:"last_trained_at,omitempty"`
}
