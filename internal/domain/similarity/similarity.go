// Package similarity computes deterministic compatibility signals between
// two company feature records. It is pure and model-free: the engine uses it
// both as the scoring fallback and for the reasoning breakdown attached to
// every recommendation.
package similarity

import (
	"fmt"
	"math"

	"github.com/aditya13504/partner-recommender/internal/domain/model"
)

// Tuned blend constants. These encode business behavior and are kept exactly
// as deployed; the funding and size blends intentionally differ.
const (
	fundingBlendScale = 0.8
	fundingBlendFloor = 0.2

	sizeBlendScale = 0.7
	sizeBlendFloor = 0.3

	// growthSpread is the growth-rate delta (in percent points) at which
	// growth alignment reaches zero.
	growthSpread = 100.0

	// Timing score blend and growth normalizer.
	timingSentimentWeight = 0.6
	timingGrowthWeight    = 0.4
	timingGrowthSpan      = 50.0

	// neutralScore is returned when a culture vector has no direction.
	neutralScore = 0.5
)

// Breakdown keys used in reasoning payloads.
const (
	KeyFundingAlignment   = "funding_stage_alignment"
	KeySizeAlignment      = "company_size_alignment"
	KeyGrowthAlignment    = "growth_trajectory_alignment"
	KeySentimentAlignment = "market_sentiment_alignment"
)

// Cosine returns the cosine similarity of two equal-length vectors in [-1, 1].
// A zero-norm vector has no direction; ok reports whether both norms were
// positive.
func Cosine(a, b []float64) (cos float64, ok bool, err error) {
	if len(a) != len(b) {
		return 0, false, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, false, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true, nil
}

// FallbackScore computes the model-free compatibility score of two culture
// vectors: cosine similarity remapped from [-1,1] to [0,1]. Vectors with a
// zero norm score a neutral 0.5.
func FallbackScore(a, b []float64) (float64, error) {
	cos, ok, err := Cosine(a, b)
	if err != nil {
		return 0, err
	}
	if !ok {
		return neutralScore, nil
	}
	return clamp01((cos + 1) / 2), nil
}

// BehavioralAlignment is the cultural compatibility of two feature records,
// using the same remapped-cosine formula as the fallback. It is computed
// independently of how the primary score was produced.
func BehavioralAlignment(query, candidate model.CompanyFeatures) (float64, error) {
	return FallbackScore(query.CultureVector, candidate.CultureVector)
}

// CompatibilityFactors derives the auxiliary alignment sub-scores of a pair.
// All components are in [0,1] and symmetric in their inputs.
func CompatibilityFactors(a, b model.CompanyFeatures) map[string]float64 {
	return map[string]float64{
		KeyFundingAlignment:   FundingAlignment(a.Traction.FundingAmount, b.Traction.FundingAmount),
		KeySizeAlignment:      SizeAlignment(a.Traction.EmployeeCount, b.Traction.EmployeeCount),
		KeyGrowthAlignment:    GrowthAlignment(a.Traction.GrowthRate, b.Traction.GrowthRate),
		KeySentimentAlignment: SentimentAlignment(a.Traction.MarketSentiment, b.Traction.MarketSentiment),
	}
}

// FundingAlignment blends the funding ratio into [0.2, 1.0] so extreme size
// mismatches are not scored near zero.
func FundingAlignment(fa, fb float64) float64 {
	return boundedRatio(fa, fb)*fundingBlendScale + fundingBlendFloor
}

// SizeAlignment blends the headcount ratio into [0.3, 1.0].
func SizeAlignment(ea, eb int) float64 {
	return boundedRatio(float64(ea), float64(eb))*sizeBlendScale + sizeBlendFloor
}

// GrowthAlignment is 1 minus the growth-rate gap over growthSpread, floored
// at zero.
func GrowthAlignment(ga, gb float64) float64 {
	return math.Max(0, 1-math.Abs(ga-gb)/growthSpread)
}

// SentimentAlignment is 1 minus the absolute sentiment gap, floored at zero.
func SentimentAlignment(sa, sb float64) float64 {
	return math.Max(0, 1-math.Abs(sa-sb))
}

// TimingScore is single-sided: it rates how favorable the candidate's own
// market conditions are right now.
func TimingScore(candidate model.CompanyFeatures) float64 {
	t := candidate.Traction
	sentiment := (t.MarketSentiment + 1) / 2
	growth := clamp01(t.GrowthRate / timingGrowthSpan)
	return sentiment*timingSentimentWeight + growth*timingGrowthWeight
}

// boundedRatio returns min/max with the denominator clamped to at least 1,
// guarding the all-zero case.
func boundedRatio(x, y float64) float64 {
	return math.Min(x, y) / math.Max(math.Max(x, y), 1)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
