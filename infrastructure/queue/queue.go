// Package queue carries weather sync jobs from the scheduler to the processor.
package queue

import (
	"context"
	"errors"
	"time"
)

// DefaultName is the queue the weather sync job uses.
const DefaultName = "weather-sync"

// ErrClosed is returned by a queue after Close.
var ErrClosed = errors.New("queue closed")

// Job asks the processor to refresh the forecast for one city.
type Job struct {
	ID         string    `json:"id"`
	City       string    `json:"city"`
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Queue is a FIFO of jobs.
type Queue interface {
	// Enqueue appends a job.
	Enqueue(ctx context.Context, job Job) error
	// Dequeue blocks until a job is available or ctx is done.
	Dequeue(ctx context.Context) (Job, error)
	// TryDequeue returns the next job without waiting. ok is false when the queue is empty.
	TryDequeue(ctx context.Context) (job Job, ok bool, err error)
	// Len reports the number of waiting jobs.
	Len(ctx context.Context) (int64, error)
	Close() error
}
