package cache

import (
	"context"
	"sync"
	"time"

	"github.com/aditya13504/partner-recommender/internal/domain/model"
	"github.com/aditya13504/partner-recommender/pkg/metrics"
)

type memoryEntry struct {
	recs     []model.Recommendation
	storedAt time.Time
}

// MemoryCache is a ResultCache for deployments without Redis. Entries
// expire lazily on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	clock   func() time.Time
}

// NewMemoryCache creates an in-memory result cache with the given TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     clampTTL(ttl),
		clock:   time.Now,
	}
}

// PutResults stores a copy of the recommendations for one query company.
func (c *MemoryCache) PutResults(_ context.Context, queryID string, recs []model.Recommendation) error {
	cp := make([]model.Recommendation, len(recs))
	copy(cp, recs)

	c.mu.Lock()
	c.entries[resultKey(queryID)] = memoryEntry{recs: cp, storedAt: c.clock()}
	c.mu.Unlock()
	return nil
}

// GetResults returns the cached recommendations when present and fresh.
func (c *MemoryCache) GetResults(_ context.Context, queryID string) ([]model.Recommendation, bool, error) {
	key := resultKey(queryID)

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		metrics.RecordCacheMiss()
		return nil, false, nil
	}
	if c.clock().Sub(e.storedAt) > c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		metrics.RecordCacheMiss()
		return nil, false, nil
	}

	metrics.RecordCacheHit()
	out := make([]model.Recommendation, len(e.recs))
	copy(out, e.recs)
	return out, true, nil
}

// Close is a no-op for the in-memory cache.
func (c *MemoryCache) Close() error { return nil }
