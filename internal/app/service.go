// Package app assembles the recommendation service from its adapters and
// owns the sync-versus-background decision for batch requests.
package app

import (
	"context"
	"fmt"

	"github.com/aditya13504/partner-recommender/internal/adapters/cache"
	"github.com/aditya13504/partner-recommender/internal/adapters/features"
	"github.com/aditya13504/partner-recommender/internal/adapters/mq/queue"
	"github.com/aditya13504/partner-recommender/internal/adapters/mq/worker"
	"github.com/aditya13504/partner-recommender/internal/adapters/repository"
	"github.com/aditya13504/partner-recommender/internal/config"
	"github.com/aditya13504/partner-recommender/internal/domain/explain"
	"github.com/aditya13504/partner-recommender/internal/domain/model"
	"github.com/aditya13504/partner-recommender/internal/domain/scoring"
	"github.com/aditya13504/partner-recommender/internal/engine"
	"github.com/aditya13504/partner-recommender/pkg/logger"
	"github.com/aditya13504/partner-recommender/pkg/metrics"
)

// Service owns the engine, model lifecycle, and batch machinery.
type Service struct {
	cfg      *config.Config
	engine   *engine.Engine
	model    *scoring.TwoTowerModel
	client   *features.Client
	provider features.Provider
	queue    *queue.InMemoryQueue
	pool     *worker.Pool
	results  cache.ResultCache
	logger   logger.Logger
}

// New wires a Service from configuration. It connects to Redis when
// configured, otherwise batch results are cached in memory.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	log := logger.Get().Named("app")

	store := repository.NewSnapshotStore(
		repository.WithShardCount(cfg.SnapshotShardCount),
		repository.WithTTL(cfg.SnapshotTTL()),
	)
	client := features.NewClient(cfg.FeatureStoreURL, features.WithTimeout(cfg.FeatureStoreTimeout()))
	provider := features.NewCachedProvider(client, store)

	var opts []scoring.ModelOption
	if cfg.TrainerCommand != "" {
		opts = append(opts, scoring.WithTrainer(&scoring.ExecTrainer{Command: cfg.TrainerCommand}))
	}
	m := scoring.NewTwoTowerModel(cfg.ModelDir, cfg.EmbeddingDim, opts...)
	if err := m.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initialize model: %w", err)
	}

	eng := engine.New(provider, m,
		engine.WithThreshold(cfg.SimilarityThreshold),
		engine.WithTopKLimits(cfg.DefaultTopK, cfg.MaxTopK),
		engine.WithBatchConcurrency(cfg.BatchConcurrency),
	)

	var results cache.ResultCache
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL())
		if err != nil {
			return nil, fmt.Errorf("connect result cache: %w", err)
		}
		results = rc
		log.Info(ctx, "batch result cache backed by redis", logger.String("addr", cfg.RedisAddr))
	} else {
		results = cache.NewMemoryCache(cfg.CacheTTL())
		log.Info(ctx, "batch result cache in memory")
	}

	q := queue.NewInMemoryQueue(queue.WithCapacity(cfg.JobQueueSize))
	pool := worker.NewPool(q, eng, results, worker.WithWorkerCount(cfg.WorkerCount))

	return &Service{
		cfg:      cfg,
		engine:   eng,
		model:    m,
		client:   client,
		provider: provider,
		queue:    q,
		pool:     pool,
		results:  results,
		logger:   log,
	}, nil
}

// Start launches the background batch workers.
func (s *Service) Start(ctx context.Context) {
	s.pool.Start(ctx)
	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.cfg.WorkerCount),
		logger.Int("async_batch_threshold", s.cfg.AsyncBatchThreshold))
}

// Stop shuts down the batch machinery and releases cache connections.
func (s *Service) Stop(ctx context.Context) {
	s.queue.Close()
	s.pool.Stop()
	if err := s.results.Close(); err != nil {
		s.logger.Warn(ctx, "closing result cache failed", logger.Error(err))
	}
	s.logger.Info(ctx, "service stopped")
}

// Recommend ranks partners for one query company.
func (s *Service) Recommend(ctx context.Context, req engine.Request) ([]model.Recommendation, error) {
	return s.engine.Recommend(ctx, req)
}

// BatchOutcome is the result of a batch request: either inline results or
// a job id to poll when the batch was large enough to go to background.
type BatchOutcome struct {
	Async   bool
	JobID   string
	Results map[string][]model.Recommendation
}

// RecommendBatch serves small batches inline and queues large ones. Results
// land in the result cache either way, keyed per query company.
func (s *Service) RecommendBatch(ctx context.Context, queryIDs []string, topK int, threshold *float64, filters *model.Filters) (BatchOutcome, error) {
	job := queue.NewJob(queryIDs, topK, threshold, filters)
	if len(job.QueryIDs) == 0 {
		return BatchOutcome{Results: map[string][]model.Recommendation{}}, nil
	}

	if len(job.QueryIDs) > s.cfg.AsyncBatchThreshold {
		if err := s.queue.Enqueue(ctx, job); err != nil {
			return BatchOutcome{}, fmt.Errorf("queue batch job: %w", err)
		}
		metrics.RecordBatchJob("async")
		s.logger.Info(ctx, "batch queued for background processing",
			logger.String("job_id", job.JobID),
			logger.Int("queries", len(job.QueryIDs)))
		return BatchOutcome{Async: true, JobID: job.JobID}, nil
	}

	metrics.RecordBatchJob("sync")
	results := s.engine.RecommendBatch(ctx, job.QueryIDs, job.TopK, job.Threshold, job.Filters)
	for queryID, recs := range results {
		if err := s.results.PutResults(ctx, queryID, recs); err != nil {
			s.logger.Warn(ctx, "caching batch results failed",
				logger.String("query_id", queryID), logger.Error(err))
		}
	}
	return BatchOutcome{Results: results}, nil
}

// BatchResults returns the cached recommendations for one query company.
func (s *Service) BatchResults(ctx context.Context, queryID string) ([]model.Recommendation, bool, error) {
	return s.results.GetResults(ctx, queryID)
}

// Explain decomposes the match between two companies.
func (s *Service) Explain(ctx context.Context, queryID, partnerID string, topFeatures int) (explain.Explanation, error) {
	return s.engine.Explain(ctx, queryID, partnerID, topFeatures)
}

// ModelStatus reports the scoring model lifecycle state.
func (s *Service) ModelStatus(ctx context.Context) model.ModelStatus {
	return s.model.Status(ctx)
}

// ReloadModel swaps in the artifact currently on disk.
func (s *Service) ReloadModel(ctx context.Context) error {
	return s.model.Reload(ctx)
}

// Train kicks off an asynchronous training run.
func (s *Service) Train(ctx context.Context, datasetRef string, cfg, params map[string]any) error {
	return s.model.Train(ctx, datasetRef, cfg, params)
}

// TrainingHistory returns past training runs, oldest first.
func (s *Service) TrainingHistory(ctx context.Context) []model.TrainingRecord {
	return s.model.History(ctx)
}

// Stats summarizes serving state.
func (s *Service) Stats(ctx context.Context) engine.Stats {
	return s.engine.Stats(ctx)
}

// FeatureStoreHealthy reports whether the feature service answers its
// health endpoint.
func (s *Service) FeatureStoreHealthy(ctx context.Context) bool {
	return s.client.Health(ctx)
}

// QueueDepth reports the number of queued background jobs.
func (s *Service) QueueDepth() int {
	return s.queue.Len()
}
