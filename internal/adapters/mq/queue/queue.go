// Package queue holds the in-process queue feeding background batch
// recommendation jobs to the worker pool.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aditya13504/partner-recommender/internal/domain/model"
	"github.com/aditya13504/partner-recommender/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultCapacity = 1024
)

// Job is one queued batch recommendation request. A nil Threshold means
// the engine default applies.
type Job struct {
	JobID       string
	QueryIDs    []string
	TopK        int
	Threshold   *float64
	Filters     *model.Filters
	SubmittedAt time.Time
}

// NewJob builds a job with a fresh id and deduplicated query ids, keeping
// first-seen order.
func NewJob(queryIDs []string, topK int, threshold *float64, filters *model.Filters) Job {
	seen := make(map[string]struct{}, len(queryIDs))
	deduped := make([]string, 0, len(queryIDs))
	for _, id := range queryIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		deduped = append(deduped, id)
	}
	return Job{
		JobID:       uuid.NewString(),
		QueryIDs:    deduped,
		TopK:        topK,
		Threshold:   threshold,
		Filters:     filters,
		SubmittedAt: time.Now().UTC(),
	}
}

// InMemoryQueue is a bounded FIFO of batch jobs. Enqueue rejects duplicate
// job ids that are still queued or in flight; Ack releases the id once a
// worker finishes the job.
type InMemoryQueue struct {
	jobs chan Job

	mu       sync.Mutex
	inflight map[string]struct{}
	closed   bool
}

// Option applies a configuration option to the queue.
type Option func(*options)

type options struct {
	capacity int
}

// WithCapacity bounds the number of queued jobs.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// NewInMemoryQueue creates a bounded job queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	o := options{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(&o)
	}
	return &InMemoryQueue{
		jobs:     make(chan Job, o.capacity),
		inflight: make(map[string]struct{}),
	}
}

// Enqueue adds a job without blocking. It fails when the queue is closed,
// full, or already holds the job id. The mutex is held across the send so
// Close cannot close the channel mid-Enqueue; the send never blocks because
// it has a default arm.
func (q *InMemoryQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if _, dup := q.inflight[job.JobID]; dup {
		return ErrDuplicateJob
	}

	select {
	case q.jobs <- job:
		q.inflight[job.JobID] = struct{}{}
		metrics.UpdateBatchQueueSize(len(q.jobs))
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue blocks until a job is available, the queue is closed and drained,
// or the context ends. A closed, drained queue returns ErrQueueClosed.
func (q *InMemoryQueue) Dequeue(ctx context.Context) (Job, error) {
	select {
	case job, ok := <-q.jobs:
		if !ok {
			return Job{}, ErrQueueClosed
		}
		metrics.UpdateBatchQueueSize(len(q.jobs))
		return job, nil
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

// Ack marks a job finished, allowing its id to be enqueued again.
func (q *InMemoryQueue) Ack(jobID string) {
	q.mu.Lock()
	delete(q.inflight, jobID)
	q.mu.Unlock()
}

// Len reports the number of currently queued jobs.
func (q *InMemoryQueue) Len() int {
	return len(q.jobs)
}

// Close stops accepting jobs. Queued jobs can still be drained.
func (q *InMemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.jobs)
}

// IsClosed reports whether the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
