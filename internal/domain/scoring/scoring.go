// Package scoring defines the contract for the trained two-tower pair
// scorer and its lifecycle. The engine treats the model as a black box
// behind the Scorer interface; when no model is active, callers fall back
// to the deterministic similarity score.
package scoring

import (
	"context"

	"github.com/aditya13504/partner-recommender/internal/domain/model"
)

// Dense input layout constants. The dense slot layout is fixed by the
// deployed model and padded with zeros.
const (
	DenseDim = 13

	fundingNormalizer   = 1_000_000.0
	headcountNormalizer = 1_000.0
	percentNormalizer   = 100.0
)

// PairInput is the model-input encoding of one (query, candidate) pair.
type PairInput struct {
	QueryID     string
	CandidateID string

	QueryDense     []float64
	CandidateDense []float64

	QueryVector     []float64
	CandidateVector []float64
}

// Scorer computes a compatibility probability for a company pair.
type Scorer interface {
	// Score returns a probability in [0,1]. It fails with ErrModelNotLoaded
	// when no model is active; that condition is expected and recoverable.
	Score(ctx context.Context, in PairInput) (float64, error)

	// Status reports the model lifecycle state.
	Status(ctx context.Context) model.ModelStatus
}

// BuildPairInput encodes two feature records into the model input layout.
func BuildPairInput(query, candidate model.CompanyFeatures) PairInput {
	return PairInput{
		QueryID:         query.CompanyID,
		CandidateID:     candidate.CompanyID,
		QueryDense:      denseSlots(query),
		CandidateDense:  denseSlots(candidate),
		QueryVector:     query.CultureVector,
		CandidateVector: candidate.CultureVector,
	}
}

// denseSlots flattens a feature record into the fixed dense layout.
func denseSlots(f model.CompanyFeatures) []float64 {
	t := f.Traction
	dense := make([]float64, DenseDim)
	dense[0] = f.UserOverlapScore
	dense[1] = t.FundingAmount / fundingNormalizer
	dense[2] = float64(t.EmployeeCount) / headcountNormalizer
	dense[3] = t.GrowthRate / percentNormalizer
	dense[4] = t.MarketSentiment
	dense[5] = t.RevenueGrowth / percentNormalizer
	dense[6] = t.UserGrowth / percentNormalizer
	// Remaining slots stay zero.
	return dense
}
