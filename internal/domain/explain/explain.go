// Package explain decomposes a single (query, partner) match into ranked
// feature contributions and narrative compatibility and risk summaries.
// Everything here is a pure function of the two feature records and the
// overall score, so identical inputs produce identical output.
package explain

import (
	"fmt"
	"math"
	"sort"

	"github.com/aditya13504/partner-recommender/internal/domain/model"
	"github.com/aditya13504/partner-recommender/internal/domain/similarity"
)

// Fixed contribution weight table. The first two weights are load-bearing
// business tuning; the remainder distribute the residual mass across the
// alignment sub-scores.
const (
	weightUserOverlap        = 0.30
	weightFundingAlignment   = 0.25
	weightSizeAlignment      = 0.15
	weightGrowthAlignment    = 0.12
	weightSentimentAlignment = 0.10
	weightCulturalAlignment  = 0.08
)

// Rule thresholds for synergy and risk derivation.
const (
	strongOverlapThreshold = 0.5
	highGrowthThreshold    = 20.0
	strongCultureThreshold = 0.7
	weakCultureThreshold   = 0.35
	sizeDisparityRatio     = 0.1
	fundingDisparityRatio  = 0.01
	sentimentGapThreshold  = 1.0
)

// Contribution is one scored feature in the explanation.
type Contribution struct {
	Feature      string  `json:"feature"`
	Value        float64 `json:"value"`
	Contribution float64 `json:"contribution"`
	Description  string  `json:"description"`
}

// CulturalAlignment summarizes the culture-vector comparison.
type CulturalAlignment struct {
	OverallAlignment     float64  `json:"overall_alignment"`
	KeySimilarities      []string `json:"key_similarities"`
	PotentialDifferences []string `json:"potential_differences"`
	Recommendation       string   `json:"recommendation"`
}

// Explanation is the full decomposition returned for one pair.
type Explanation struct {
	QueryCompany           string             `json:"query_company"`
	PartnerCompany         string             `json:"partner_company"`
	OverallMatchScore      float64            `json:"overall_match_score"`
	FeatureContributions   []Contribution     `json:"feature_contributions"`
	CompatibilityBreakdown map[string]float64 `json:"compatibility_breakdown"`
	CulturalAlignment      CulturalAlignment  `json:"cultural_alignment"`
	BusinessSynergies      []string           `json:"business_synergies"`
	PotentialChallenges    []string           `json:"potential_challenges"`
}

// Build assembles the explanation for one pair. overallScore is the primary
// match score the engine computed (model or fallback); topFeatures caps the
// contribution list.
func Build(query, partner model.CompanyFeatures, overallScore float64, topFeatures int) Explanation {
	breakdown := similarity.CompatibilityFactors(query, partner)
	cultural, _ := similarity.BehavioralAlignment(query, partner)

	contributions := featureContributions(query, breakdown, cultural)
	sort.SliceStable(contributions, func(i, j int) bool {
		if contributions[i].Contribution != contributions[j].Contribution {
			return contributions[i].Contribution > contributions[j].Contribution
		}
		return contributions[i].Feature < contributions[j].Feature
	})
	if topFeatures > 0 && len(contributions) > topFeatures {
		contributions = contributions[:topFeatures]
	}

	return Explanation{
		QueryCompany:           query.CompanyID,
		PartnerCompany:         partner.CompanyID,
		OverallMatchScore:      overallScore,
		FeatureContributions:   contributions,
		CompatibilityBreakdown: breakdown,
		CulturalAlignment:      culturalAlignment(cultural),
		BusinessSynergies:      synergies(query, partner, cultural),
		PotentialChallenges:    challenges(query, partner),
	}
}

func featureContributions(query model.CompanyFeatures, breakdown map[string]float64, cultural float64) []Contribution {
	return []Contribution{
		{
			Feature:      "user_overlap_score",
			Value:        query.UserOverlapScore,
			Contribution: query.UserOverlapScore * weightUserOverlap,
			Description:  "Overlap in user bases",
		},
		{
			Feature:      "funding_alignment",
			Value:        breakdown[similarity.KeyFundingAlignment],
			Contribution: breakdown[similarity.KeyFundingAlignment] * weightFundingAlignment,
			Description:  "Similarity in funding stages",
		},
		{
			Feature:      "size_alignment",
			Value:        breakdown[similarity.KeySizeAlignment],
			Contribution: breakdown[similarity.KeySizeAlignment] * weightSizeAlignment,
			Description:  "Similarity in company size",
		},
		{
			Feature:      "growth_alignment",
			Value:        breakdown[similarity.KeyGrowthAlignment],
			Contribution: breakdown[similarity.KeyGrowthAlignment] * weightGrowthAlignment,
			Description:  "Similarity in growth trajectories",
		},
		{
			Feature:      "sentiment_alignment",
			Value:        breakdown[similarity.KeySentimentAlignment],
			Contribution: breakdown[similarity.KeySentimentAlignment] * weightSentimentAlignment,
			Description:  "Similarity in market sentiment",
		},
		{
			Feature:      "cultural_alignment",
			Value:        cultural,
			Contribution: cultural * weightCulturalAlignment,
			Description:  "Culture vector similarity",
		},
	}
}

func culturalAlignment(score float64) CulturalAlignment {
	ca := CulturalAlignment{OverallAlignment: score}
	switch {
	case score >= strongCultureThreshold:
		ca.KeySimilarities = []string{
			"Closely aligned working cultures",
			"Shared growth-oriented mindset",
		}
		ca.Recommendation = "Strong cultural fit with complementary strengths"
	case score >= weakCultureThreshold:
		ca.KeySimilarities = []string{"Partially aligned working cultures"}
		ca.PotentialDifferences = []string{
			"Risk tolerance levels",
			"Decision-making speed",
		}
		ca.Recommendation = "Workable cultural fit; align on operating cadence early"
	default:
		ca.PotentialDifferences = []string{
			"Divergent working cultures",
			"Risk tolerance levels",
			"Decision-making speed",
		}
		ca.Recommendation = "Weak cultural fit; invest in joint working agreements first"
	}
	return ca
}

func synergies(query, partner model.CompanyFeatures, cultural float64) []string {
	var out []string
	if query.UserOverlapScore >= strongOverlapThreshold {
		out = append(out, "Shared user base enables cross-selling opportunities")
	}
	if query.Traction.GrowthRate >= highGrowthThreshold && partner.Traction.GrowthRate >= highGrowthThreshold {
		out = append(out, "Both companies are in high-growth phases, supporting joint expansion")
	}
	if cultural >= strongCultureThreshold {
		out = append(out, "Strong cultural alignment lowers integration cost")
	}
	if query.Traction.MarketSentiment > 0 && partner.Traction.MarketSentiment > 0 {
		out = append(out, "Positive market sentiment on both sides favors co-marketing")
	}
	if out == nil {
		out = append(out, "Complementary market positions worth exploring")
	}
	return out
}

func challenges(query, partner model.CompanyFeatures) []string {
	var out []string
	if ratio(float64(query.Traction.EmployeeCount), float64(partner.Traction.EmployeeCount)) < sizeDisparityRatio {
		out = append(out, fmt.Sprintf(
			"Large employee-count disparity (%d vs %d) may create power imbalances",
			query.Traction.EmployeeCount, partner.Traction.EmployeeCount))
	}
	if ratio(query.Traction.FundingAmount, partner.Traction.FundingAmount) < fundingDisparityRatio {
		out = append(out, "Funding-stage gap may complicate deal structuring")
	}
	if math.Abs(query.Traction.MarketSentiment-partner.Traction.MarketSentiment) >= sentimentGapThreshold {
		out = append(out, "Diverging market sentiment suggests different near-term priorities")
	}
	out = append(out, "Need for clear IP and data sharing agreements")
	return out
}

// ratio returns min/max with the denominator clamped to at least 1.
func ratio(a, b float64) float64 {
	return math.Min(a, b) / math.Max(math.Max(a, b), 1)
}
