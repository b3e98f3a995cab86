// Package cache stores finished batch recommendation results so callers
// can poll for them after an asynchronous job completes. Deployments back
// it with Redis; tests and single-node setups use the in-memory variant.
package cache

import (
	"context"
	"time"

	"github.com/aditya13504/partner-recommender/internal/domain/model"
)

// Key prefix for per-query batch results.
const resultKeyPrefix = "batch:"

// ResultCache stores recommendation lists keyed by query company id.
type ResultCache interface {
	// PutResults stores the recommendations for one query company. The
	// entry expires after the cache's TTL.
	PutResults(ctx context.Context, queryID string, recs []model.Recommendation) error

	// GetResults returns the cached recommendations for a query company.
	// The bool reports whether an entry was present.
	GetResults(ctx context.Context, queryID string) ([]model.Recommendation, bool, error)

	// Close releases any underlying connections.
	Close() error
}

func resultKey(queryID string) string {
	return resultKeyPrefix + queryID
}

// clampTTL guards against zero/negative TTLs which some backends treat as
// "never expire".
func clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return time.Hour
	}
	return ttl
}
