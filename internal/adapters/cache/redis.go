package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/aditya13504/partner-recommender/internal/domain/model"
	"github.com/aditya13504/partner-recommender/pkg/metrics"
)

// RedisCache is a ResultCache backed by Redis with per-entry expiry.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis at addr and verifies the connection.
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %w", ErrCacheUnavailable, err)
	}
	return &RedisCache{client: client, ttl: clampTTL(ttl)}, nil
}

// PutResults stores the recommendations under "batch:{queryID}" with expiry.
func (c *RedisCache) PutResults(ctx context.Context, queryID string, recs []model.Recommendation) error {
	raw, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode results for %s: %w", queryID, err)
	}
	if err := c.client.Set(ctx, resultKey(queryID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCacheUnavailable, err)
	}
	return nil
}

// GetResults loads cached recommendations; a missing key is not an error.
func (c *RedisCache) GetResults(ctx context.Context, queryID string) ([]model.Recommendation, bool, error) {
	raw, err := c.client.Get(ctx, resultKey(queryID)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheMiss()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrCacheUnavailable, err)
	}

	var recs []model.Recommendation
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, false, fmt.Errorf("decode results for %s: %w", queryID, err)
	}
	metrics.RecordCacheHit()
	return recs, true, nil
}

// Close shuts down the Redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
