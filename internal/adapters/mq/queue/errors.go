package queue

import "errors"

var (
	// ErrQueueClosed rejects operations after shutdown began.
	ErrQueueClosed = errors.New("queue closed")

	// ErrQueueFull rejects enqueues beyond the configured capacity.
	ErrQueueFull = errors.New("queue full")

	// ErrDuplicateJob rejects a job id that is already queued or running.
	ErrDuplicateJob = errors.New("duplicate job")
)
