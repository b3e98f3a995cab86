// Package engine ranks partner candidates for a query company. It combines
// the two-tower scoring model with a deterministic similarity fallback and
// attaches reasoning to every recommendation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aditya13504/partner-recommender/internal/adapters/features"
	"github.com/aditya13504/partner-recommender/internal/domain/explain"
	"github.com/aditya13504/partner-recommender/internal/domain/model"
	"github.com/aditya13504/partner-recommender/internal/domain/scoring"
	"github.com/aditya13504/partner-recommender/internal/domain/similarity"
	"github.com/aditya13504/partner-recommender/pkg/logger"
	"github.com/aditya13504/partner-recommender/pkg/metrics"
)

// Default engine configuration constants.
const (
	defaultThreshold        = 0.5
	defaultTopK             = 10
	defaultMaxTopK          = 100
	defaultBatchConcurrency = 5
	defaultTopFeatures      = 10

	// confidenceBoost inflates the match score into a confidence estimate,
	// capped at 1.
	confidenceBoost = 1.1
)

// Request is one recommendation query.
type Request struct {
	CompanyID string
	TopK      int
	Threshold *float64 // nil means the engine default
	Filters   *model.Filters
}

// Engine wires the feature provider and scorer into the ranking pipeline.
type Engine struct {
	features         features.Provider
	scorer           scoring.Scorer
	threshold        float64
	defaultTopK      int
	maxTopK          int
	batchConcurrency int
	logger           logger.Logger
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithThreshold sets the default minimum match score.
func WithThreshold(t float64) Option {
	return func(e *Engine) {
		if t >= 0 && t <= 1 {
			e.threshold = t
		}
	}
}

// WithTopKLimits sets the default and maximum result list sizes.
func WithTopKLimits(def, max int) Option {
	return func(e *Engine) {
		if def > 0 {
			e.defaultTopK = def
		}
		if max > 0 {
			e.maxTopK = max
		}
	}
}

// WithBatchConcurrency bounds parallel per-query work inside RecommendBatch.
func WithBatchConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchConcurrency = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates a recommendation engine.
func New(provider features.Provider, scorer scoring.Scorer, opts ...Option) *Engine {
	e := &Engine{
		features:         provider,
		scorer:           scorer,
		threshold:        defaultThreshold,
		defaultTopK:      defaultTopK,
		maxTopK:          defaultMaxTopK,
		batchConcurrency: defaultBatchConcurrency,
		logger:           logger.Get().Named("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recommend ranks partner candidates for one query company. The query
// company itself is never a candidate. Per-candidate failures are skipped;
// only missing query features or a broken feature service fail the call.
func (e *Engine) Recommend(ctx context.Context, req Request) ([]model.Recommendation, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRecommendLatency(float64(time.Since(start).Milliseconds()))
	}()

	topK := e.clampTopK(req.TopK)
	threshold := e.threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	query, err := e.features.Get(ctx, req.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("fetch query features: %w", err)
	}
	if query == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCompany, req.CompanyID)
	}

	candidateIDs, err := e.features.ListCompanyIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	ids := make([]string, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		if id != req.CompanyID {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return []model.Recommendation{}, nil
	}

	candidates, err := e.features.GetBatch(ctx, ids)
	if err != nil {
		// Candidate data being unavailable degrades to an empty result
		// rather than failing the query.
		e.logger.Warn(ctx, "candidate feature fetch failed, returning no recommendations",
			logger.String("company_id", req.CompanyID), logger.Error(err))
		return []model.Recommendation{}, nil
	}

	queryID := uuid.NewString()
	now := time.Now().UTC()
	recs := make([]model.Recommendation, 0, len(candidates))
	for _, id := range ids {
		candidate, ok := candidates[id]
		if !ok {
			continue
		}
		if !req.Filters.Match(candidate) {
			continue
		}

		score, scoredBy, err := e.scorePair(ctx, *query, candidate)
		if err != nil {
			metrics.RecordCandidateSkipped()
			metrics.RecordScoringError()
			e.logger.Warn(ctx, "candidate scoring failed, skipping",
				logger.String("company_id", req.CompanyID),
				logger.String("candidate_id", id),
				logger.Error(err))
			continue
		}
		metrics.RecordCandidateScored()
		if score < threshold {
			continue
		}

		behavioral, err := similarity.BehavioralAlignment(*query, candidate)
		if err != nil {
			metrics.RecordCandidateSkipped()
			continue
		}

		recs = append(recs, model.Recommendation{
			CompanyID:  id,
			MatchScore: score,
			Confidence: math.Min(score*confidenceBoost, 1),
			Reasoning: model.Reasoning{
				CompatibilityFactors: similarity.CompatibilityFactors(*query, candidate),
				TimingScore:          similarity.TimingScore(candidate),
				BehavioralAlignment:  behavioral,
			},
			Metadata: model.Metadata{
				QueryID:      queryID,
				QueryCompany: req.CompanyID,
				GeneratedAt:  now,
				ScoredBy:     scoredBy,
			},
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].MatchScore != recs[j].MatchScore {
			return recs[i].MatchScore > recs[j].MatchScore
		}
		return recs[i].CompanyID < recs[j].CompanyID
	})
	if len(recs) > topK {
		recs = recs[:topK]
	}

	metrics.RecordRecommendationsServed(len(recs))
	return recs, nil
}

// scorePair scores one candidate, degrading to the similarity fallback when
// no model is loaded.
func (e *Engine) scorePair(ctx context.Context, query, candidate model.CompanyFeatures) (float64, string, error) {
	score, err := e.scorer.Score(ctx, scoring.BuildPairInput(query, candidate))
	if err == nil {
		return score, model.ScoredByModel, nil
	}
	if !errors.Is(err, scoring.ErrModelNotLoaded) {
		return 0, "", err
	}

	metrics.RecordFallbackScore()
	score, err = similarity.FallbackScore(query.CultureVector, candidate.CultureVector)
	if err != nil {
		return 0, "", err
	}
	return score, model.ScoredByFallback, nil
}

// RecommendBatch runs Recommend for every query id with bounded
// concurrency. The result always holds one entry per deduplicated query id;
// a failed query maps to an empty list.
func (e *Engine) RecommendBatch(ctx context.Context, queryIDs []string, topK int, threshold *float64, filters *model.Filters) map[string][]model.Recommendation {
	seen := make(map[string]struct{}, len(queryIDs))
	deduped := make([]string, 0, len(queryIDs))
	for _, id := range queryIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		deduped = append(deduped, id)
	}

	type result struct {
		id   string
		recs []model.Recommendation
	}
	results := make(chan result, len(deduped))
	sem := make(chan struct{}, e.batchConcurrency)

	for _, id := range deduped {
		sem <- struct{}{}
		go func(id string) {
			defer func() { <-sem }()

			recs, err := e.Recommend(ctx, Request{
				CompanyID: id,
				TopK:      topK,
				Threshold: threshold,
				Filters:   filters,
			})
			if err != nil {
				e.logger.Warn(ctx, "batch query failed",
					logger.String("company_id", id), logger.Error(err))
				recs = []model.Recommendation{}
			}
			results <- result{id: id, recs: recs}
		}(id)
	}

	out := make(map[string][]model.Recommendation, len(deduped))
	for range deduped {
		r := <-results
		out[r.id] = r.recs
	}
	return out
}

// Explain decomposes the match between two specific companies.
func (e *Engine) Explain(ctx context.Context, queryID, partnerID string, topFeatures int) (explain.Explanation, error) {
	if topFeatures <= 0 {
		topFeatures = defaultTopFeatures
	}

	query, err := e.features.Get(ctx, queryID)
	if err != nil {
		return explain.Explanation{}, fmt.Errorf("fetch query features: %w", err)
	}
	if query == nil {
		return explain.Explanation{}, fmt.Errorf("%w: %s", ErrFeaturesNotFound, queryID)
	}
	partner, err := e.features.Get(ctx, partnerID)
	if err != nil {
		return explain.Explanation{}, fmt.Errorf("fetch partner features: %w", err)
	}
	if partner == nil {
		return explain.Explanation{}, fmt.Errorf("%w: %s", ErrFeaturesNotFound, partnerID)
	}

	score, _, err := e.scorePair(ctx, *query, *partner)
	if err != nil {
		return explain.Explanation{}, fmt.Errorf("score pair: %w", err)
	}
	return explain.Build(*query, *partner, score, topFeatures), nil
}

// Stats summarizes the engine's current serving state.
type Stats struct {
	CompaniesIndexed    int               `json:"companies_indexed"`
	SimilarityThreshold float64           `json:"similarity_threshold"`
	DefaultTopK         int               `json:"default_top_k"`
	MaxTopK             int               `json:"max_top_k"`
	Model               model.ModelStatus `json:"model"`
}

// Stats reports serving statistics. A feature service failure leaves the
// company count at zero rather than failing the call.
func (e *Engine) Stats(ctx context.Context) Stats {
	s := Stats{
		SimilarityThreshold: e.threshold,
		DefaultTopK:         e.defaultTopK,
		MaxTopK:             e.maxTopK,
		Model:               e.scorer.Status(ctx),
	}
	if ids, err := e.features.ListCompanyIDs(ctx); err == nil {
		s.CompaniesIndexed = len(ids)
	}
	return s
}

func (e *Engine) clampTopK(topK int) int {
	if topK <= 0 {
		return e.defaultTopK
	}
	if topK > e.maxTopK {
		return e.maxTopK
	}
	return topK
}
