// Package worker runs the background pool that drains queued batch
// recommendation jobs and publishes per-query results to the result cache.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/aditya13504/partner-recommender/internal/adapters/cache"
	"github.com/aditya13504/partner-recommender/internal/adapters/mq/queue"
	"github.com/aditya13504/partner-recommender/internal/domain/model"
	"github.com/aditya13504/partner-recommender/pkg/logger"
	"github.com/aditya13504/partner-recommender/pkg/metrics"
)

// Default pool configuration constants.
const (
	defaultWorkerCount = 2
)

// Processor computes batch recommendations. The engine implements it.
type Processor interface {
	RecommendBatch(ctx context.Context, queryIDs []string, topK int, threshold *float64, filters *model.Filters) map[string][]model.Recommendation
}

// Pool drains the job queue with a fixed set of workers.
type Pool struct {
	queue     *queue.InMemoryQueue
	processor Processor
	results   cache.ResultCache
	count     int
	logger    logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// PoolOption applies a configuration option to the Pool.
type PoolOption func(*Pool)

// WithWorkerCount sets the number of concurrent workers.
func WithWorkerCount(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.count = n
		}
	}
}

// WithPoolLogger sets a custom logger.
func WithPoolLogger(l logger.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPool creates a worker pool over the given queue, processor, and
// result cache.
func NewPool(q *queue.InMemoryQueue, processor Processor, results cache.ResultCache, opts ...PoolOption) *Pool {
	p := &Pool{
		queue:     q,
		processor: processor,
		results:   results,
		count:     defaultWorkerCount,
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the workers. It is a no-op when already started.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	metrics.UpdateWorkerActiveCount(p.count)

	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.run(runCtx, i)
	}
}

// Stop cancels the workers and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	cancel := p.cancel
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
	metrics.UpdateWorkerActiveCount(0)
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			// Context cancellation or a closed, drained queue ends the worker.
			return
		}
		p.process(ctx, id, job)
	}
}

func (p *Pool) process(ctx context.Context, workerID int, job queue.Job) {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
		p.queue.Ack(job.JobID)
	}()

	p.logger.Info(ctx, "processing batch job",
		logger.String("job_id", job.JobID),
		logger.Int("worker_id", workerID),
		logger.Int("queries", len(job.QueryIDs)))

	results := p.processor.RecommendBatch(ctx, job.QueryIDs, job.TopK, job.Threshold, job.Filters)
	stored := 0
	for queryID, recs := range results {
		if err := p.results.PutResults(ctx, queryID, recs); err != nil {
			p.logger.Error(ctx, "storing batch results failed",
				logger.String("job_id", job.JobID),
				logger.String("query_id", queryID),
				logger.Error(err))
			continue
		}
		stored++
	}

	p.logger.Info(ctx, "batch job done",
		logger.String("job_id", job.JobID),
		logger.Int("stored", stored),
		logger.Duration("elapsed", time.Since(start)))
}
