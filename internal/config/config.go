// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// FeatureStoreURL is the base URL of the external feature service.
	FeatureStoreURL string `koanf:"feature_store_url"`

	// FeatureStoreTimeoutMS bounds individual feature store calls.
	FeatureStoreTimeoutMS int `koanf:"feature_store_timeout_ms"`

	// ModelDir is the directory holding the scoring model artifact.
	ModelDir string `koanf:"model_dir"`

	// EmbeddingDim is the required culture vector length.
	EmbeddingDim int `koanf:"embedding_dim"`

	// SimilarityThreshold drops candidates scoring below it.
	SimilarityThreshold float64 `koanf:"similarity_threshold"`

	// DefaultTopK and MaxTopK bound the number of returned recommendations.
	DefaultTopK int `koanf:"default_top_k"`
	MaxTopK     int `koanf:"max_top_k"`

	// BatchConcurrency bounds concurrent per-query recommend calls in a batch.
	BatchConcurrency int `koanf:"batch_concurrency"`

	// AsyncBatchThreshold switches batches above this size to background mode.
	AsyncBatchThreshold int `koanf:"async_batch_threshold"`

	// CacheTTLSeconds bounds batch result cache entries.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// Redis connection settings for the batch result cache. An empty
	// RedisAddr selects the in-memory cache.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// SnapshotShardCount configures the feature snapshot store sharding.
	SnapshotShardCount int `koanf:"snapshot_shard_count"`

	// SnapshotTTLSeconds bounds cached feature snapshots.
	SnapshotTTLSeconds int `koanf:"snapshot_ttl_seconds"`

	// WorkerCount sets the number of background batch workers.
	WorkerCount int `koanf:"worker_count"`

	// JobQueueSize bounds the in-memory batch job queue.
	JobQueueSize int `koanf:"job_queue_size"`

	// TrainerCommand is the executable invoked for model training jobs.
	// Empty disables training.
	TrainerCommand string `koanf:"trainer_command"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":8000",
		FeatureStoreURL:       "http://localhost:8001",
		FeatureStoreTimeoutMS: 30_000,
		ModelDir:              "/models/partner-recommender",
		EmbeddingDim:          128,
		SimilarityThreshold:   0.5,
		DefaultTopK:           10,
		MaxTopK:               100,
		BatchConcurrency:      5,
		AsyncBatchThreshold:   100,
		CacheTTLSeconds:       3600,
		RedisAddr:             "",
		RedisDB:               0,
		SnapshotShardCount:    8,
		SnapshotTTLSeconds:    300,
		WorkerCount:           runtime.NumCPU(),
		JobQueueSize:          1024,
		TrainerCommand:        "",
	}
}

// FeatureStoreTimeout returns the feature store timeout as a duration.
func (c *Config) FeatureStoreTimeout() time.Duration {
	return time.Duration(c.FeatureStoreTimeoutMS) * time.Millisecond
}

// CacheTTL returns the result cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// SnapshotTTL returns the snapshot store TTL as a duration.
func (c *Config) SnapshotTTL() time.Duration {
	return time.Duration(c.SnapshotTTLSeconds) * time.Second
}
