package sync

import (
	"context"
	"fmt"
)

// Runner performs a complete sync cycle in one call. It backs the sync command and the
// scheduled Lambda.
type Runner struct {
	scheduler *Scheduler
	processor *Processor
}

// NewRunner creates a runner
func NewRunner(scheduler *Scheduler, processor *Processor) *Runner {
	return &Runner{scheduler: scheduler, processor: processor}
}

// RunOnce enqueues every favorite city and drains the queue.
func (r *Runner) RunOnce(ctx context.Context) (Result, error) {
	if _, err := r.scheduler.EnqueueAll(ctx); err != nil {
		return Result{}, fmt.Errorf("weather sync: %w", err)
	}
	return r.processor.Drain(ctx)
}
