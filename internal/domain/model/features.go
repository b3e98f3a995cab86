// Package model contains domain models passed between layers.
package model

import "time"

// TractionMetrics captures the commercial signals of one company snapshot.
type TractionMetrics struct {
	FundingAmount   float64 `json:"funding_amount"`             // total funding, USD, >= 0
	EmployeeCount   int     `json:"employee_count"`             // headcount, >= 0
	GrowthRate      float64 `json:"growth_rate"`                // signed percent
	MarketSentiment float64 `json:"market_sentiment"`           // [-1, 1]
	RevenueGrowth   float64 `json:"revenue_growth,omitempty"`   // signed percent, optional
	UserGrowth      float64 `json:"user_growth,omitempty"`      // signed percent, optional
}

// CompanyFeatures is one company snapshot produced by the feature pipeline.
// Snapshots are immutable once published; newer snapshots supersede older
// ones rather than mutating them.
type CompanyFeatures struct {
	CompanyID        string          `json:"company_id"`
	UserOverlapScore float64         `json:"user_overlap_score"` // [0, 1]
	Traction         TractionMetrics `json:"traction_metrics"`
	CultureVector    []float64       `json:"culture_vector"` // fixed length = embedding dim
	MatchOutcome     *int            `json:"match_outcome,omitempty"` // binary label, historical records only
	Timestamp        time.Time       `json:"timestamp"`
}

// Filters narrows the candidate set before scoring. Nil fields are unset.
type Filters struct {
	MinFunding    *float64 `json:"min_funding,omitempty"`
	MaxFunding    *float64 `json:"max_funding,omitempty"`
	MinEmployees  *int     `json:"min_employees,omitempty"`
	MaxEmployees  *int     `json:"max_employees,omitempty"`
	MinGrowthRate *float64 `json:"min_growth_rate,omitempty"`
	MinSentiment  *float64 `json:"min_sentiment,omitempty"`
}

// Match reports whether the candidate features pass all set filter fields.
func (f *Filters) Match(c CompanyFeatures) bool {
	if f == nil {
		return true
	}
	t := c.Traction
	switch {
	case f.MinFunding != nil && t.FundingAmount < *f.MinFunding:
		return false
	case f.MaxFunding != nil && t.FundingAmount > *f.MaxFunding:
		return false
	case f.MinEmployees != nil && t.EmployeeCount < *f.MinEmployees:
		return false
	case f.MaxEmployees != nil && t.EmployeeCount > *f.MaxEmployees:
		return false
	case f.MinGrowthRate != nil && t.GrowthRate < *f.MinGrowthRate:
		return false
	case f.MinSentiment != nil && t.MarketSentiment < *f.MinSentiment:
		return false
	}
	return true
}
