package features

import (
	"context"

	"github.com/aditya13504/partner-recommender/internal/adapters/repository"
	"github.com/aditya13504/partner-recommender/internal/domain/model"
)

// CachedProvider reads through an in-memory snapshot store before hitting
// the feature service. Snapshots expire on the store's TTL, so stale reads
// are bounded without any explicit invalidation from the feature side.
type CachedProvider struct {
	upstream Provider
	store    *repository.SnapshotStore
}

// NewCachedProvider wraps upstream with the given snapshot store.
func NewCachedProvider(upstream Provider, store *repository.SnapshotStore) *CachedProvider {
	return &CachedProvider{upstream: upstream, store: store}
}

// Get returns the cached snapshot when fresh, otherwise fetches from the
// feature service and caches the result.
func (p *CachedProvider) Get(ctx context.Context, companyID string) (*model.CompanyFeatures, error) {
	if cached, ok := p.store.Get(ctx, companyID); ok {
		return cached, nil
	}

	f, err := p.upstream.Get(ctx, companyID)
	if err != nil || f == nil {
		return f, err
	}
	_ = p.store.Put(ctx, *f)
	return f, nil
}

// GetBatch serves what it can from the store and fetches only the misses.
func (p *CachedProvider) GetBatch(ctx context.Context, companyIDs []string) (map[string]model.CompanyFeatures, error) {
	out := make(map[string]model.CompanyFeatures, len(companyIDs))
	var misses []string
	for _, id := range companyIDs {
		if cached, ok := p.store.Get(ctx, id); ok {
			out[id] = *cached
			continue
		}
		misses = append(misses, id)
	}
	if len(misses) == 0 {
		return out, nil
	}

	fetched, err := p.upstream.GetBatch(ctx, misses)
	if err != nil {
		return nil, err
	}
	for id, f := range fetched {
		_ = p.store.Put(ctx, f)
		out[id] = f
	}
	return out, nil
}

// ListCompanyIDs always goes to the feature service; the store does not
// track the full company universe.
func (p *CachedProvider) ListCompanyIDs(ctx context.Context) ([]string, error) {
	return p.upstream.ListCompanyIDs(ctx)
}
