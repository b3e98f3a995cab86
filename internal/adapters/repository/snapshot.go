// Package repository holds in-process storage for company feature
// snapshots. The store is sharded to keep lock contention low when many
// workers read features concurrently.
package repository

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/aditya13504/partner-recommender/internal/domain/model"
	"github.com/aditya13504/partner-recommender/pkg/metrics"
)

// Default store configuration constants.
const (
	defaultShardCount = 8
	defaultTTL        = 5 * time.Minute
)

type entry struct {
	features model.CompanyFeatures
	storedAt time.Time
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// SnapshotStore is a sharded in-memory store of CompanyFeatures keyed by
// company id. Entries expire ttl after they were stored; expired entries
// are treated as absent and lazily evicted.
type SnapshotStore struct {
	shards []*shard
	ttl    time.Duration
	clock  func() time.Time
}

// StoreOption applies a configuration option to the SnapshotStore.
type StoreOption func(*SnapshotStore)

// WithShardCount sets the number of shards.
func WithShardCount(n int) StoreOption {
	return func(s *SnapshotStore) {
		if n > 0 {
			s.shards = make([]*shard, n)
		}
	}
}

// WithTTL sets the entry lifetime. Zero or negative disables expiry.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *SnapshotStore) {
		s.ttl = ttl
	}
}

// WithClock replaces the time source, for tests.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *SnapshotStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewSnapshotStore creates a snapshot store with the given options.
func NewSnapshotStore(opts ...StoreOption) *SnapshotStore {
	s := &SnapshotStore{
		shards: make([]*shard, defaultShardCount),
		ttl:    defaultTTL,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]entry)}
	}
	return s
}

func (s *SnapshotStore) shardFor(companyID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(companyID))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// Put stores or replaces the snapshot for a company.
func (s *SnapshotStore) Put(_ context.Context, f model.CompanyFeatures) error {
	if f.CompanyID == "" {
		return ErrEmptyCompanyID
	}
	sh := s.shardFor(f.CompanyID)
	sh.mu.Lock()
	sh.entries[f.CompanyID] = entry{features: f, storedAt: s.clock()}
	sh.mu.Unlock()
	metrics.UpdateSnapshotStoreSize(s.Len())
	return nil
}

// Get returns the snapshot for a company, or (nil, false) when absent or
// expired.
func (s *SnapshotStore) Get(_ context.Context, companyID string) (*model.CompanyFeatures, bool) {
	sh := s.shardFor(companyID)
	sh.mu.RLock()
	e, ok := sh.entries[companyID]
	sh.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.expired(e) {
		sh.mu.Lock()
		// Re-check under the write lock: another writer may have refreshed it.
		if cur, still := sh.entries[companyID]; still && s.expired(cur) {
			delete(sh.entries, companyID)
		}
		sh.mu.Unlock()
		return nil, false
	}
	f := e.features
	return &f, true
}

// Delete removes a company's snapshot if present.
func (s *SnapshotStore) Delete(_ context.Context, companyID string) {
	sh := s.shardFor(companyID)
	sh.mu.Lock()
	delete(sh.entries, companyID)
	sh.mu.Unlock()
	metrics.UpdateSnapshotStoreSize(s.Len())
}

// Len reports the number of stored entries, including not-yet-evicted
// expired ones.
func (s *SnapshotStore) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.entries)
		sh.mu.RUnlock()
	}
	return total
}

// Purge drops all expired entries and returns how many were removed.
func (s *SnapshotStore) Purge(_ context.Context) int {
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, e := range sh.entries {
			if s.expired(e) {
				delete(sh.entries, id)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	if removed > 0 {
		metrics.UpdateSnapshotStoreSize(s.Len())
	}
	return removed
}

func (s *SnapshotStore) expired(e entry) bool {
	return s.ttl > 0 && s.clock().Sub(e.storedAt) > s.ttl
}
