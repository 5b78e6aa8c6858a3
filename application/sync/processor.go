package sync

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/Mr-Georgie/weather-api/application/ports"
	"github.com/Mr-Georgie/weather-api/infrastructure/queue"
	"github.com/Mr-Georgie/weather-api/pkg/observability"

	"github.com/sethvargo/go-retry"
	"github.com/sourcegraph/conc/pool"
)

// Job outcomes reported to Metrics.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Processor defaults.
const (
	DefaultConcurrency = 5
	DefaultAttempts    = 3
	DefaultBackoff     = time.Second
)

// ForecastRefresher fetches a city's forecast and writes it to the cache.
type ForecastRefresher interface {
	RefreshForecast(ctx context.Context, city string) error
}

// Metrics counts job outcomes and run durations.
type Metrics interface {
	RecordSyncJob(outcome string)
	RecordSyncRun(duration time.Duration)
}

// RunReporter publishes a summary of each drained run.
type RunReporter interface {
	RecordSyncRun(ctx context.Context, report observability.SyncRunReport)
}

type nopMetrics struct{}

func (nopMetrics) RecordSyncJob(string)        {}
func (nopMetrics) RecordSyncRun(time.Duration) {}

// ProcessorConfig tunes the processor. Zero values take the defaults.
type ProcessorConfig struct {
	Concurrency int
	Attempts    int
	Backoff     time.Duration
}

func (c ProcessorConfig) withDefaults() ProcessorConfig {
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Attempts <= 0 {
		c.Attempts = DefaultAttempts
	}
	if c.Backoff <= 0 {
		c.Backoff = DefaultBackoff
	}
	return c
}

// Result summarizes a drained run.
type Result struct {
	Processed int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Processor consumes sync jobs. Each job is retried on its own schedule, on top of whatever
// retries the refresher does internally.
type Processor struct {
	queue     queue.Queue
	refresher ForecastRefresher
	cfg       ProcessorConfig
	logger    ports.Logger
	metrics   Metrics
	reporter  RunReporter
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithMetrics attaches job counters.
func WithMetrics(m Metrics) ProcessorOption {
	return func(p *Processor) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithRunReporter attaches a per-run reporter.
func WithRunReporter(r RunReporter) ProcessorOption {
	return func(p *Processor) { p.reporter = r }
}

// NewProcessor creates a processor reading from q.
func NewProcessor(q queue.Queue, refresher ForecastRefresher, cfg ProcessorConfig, logger ports.Logger, opts ...ProcessorOption) *Processor {
	p := &Processor{
		queue:     q,
		refresher: refresher,
		cfg:       cfg.withDefaults(),
		logger:    logger,
		metrics:   nopMetrics{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the effective configuration.
func (p *Processor) Config() ProcessorConfig {
	return p.cfg
}

// Process refreshes one city, retrying with exponential backoff up to the configured attempts.
func (p *Processor) Process(ctx context.Context, job queue.Job) error {
	backoff := retry.WithMaxRetries(uint64(p.cfg.Attempts-1), retry.NewExponential(p.cfg.Backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		job.Attempt++
		if err := p.refresher.RefreshForecast(ctx, job.City); err != nil {
			if job.Attempt < p.cfg.Attempts {
				p.logger.Warn("Weather sync attempt failed",
					"job_id", job.ID,
					"city", job.City,
					"attempt", job.Attempt,
					"max_attempts", p.cfg.Attempts,
					"error", err,
				)
			}
			return retry.RetryableError(err)
		}
		return nil
	})

	if err != nil {
		p.metrics.RecordSyncJob(OutcomeFailed)
		p.logger.Error("Weather sync job failed",
			"job_id", job.ID,
			"city", job.City,
			"attempts", job.Attempt,
			"error", err,
		)
		return err
	}

	p.metrics.RecordSyncJob(OutcomeSucceeded)
	p.logger.Debug("Weather sync job done", "job_id", job.ID, "city", job.City, "attempts", job.Attempt)
	return nil
}

// Drain processes the jobs waiting in the queue and returns once it is empty. It never waits
// for new jobs, so it is safe to run next to another consumer of the same queue.
func (p *Processor) Drain(ctx context.Context) (Result, error) {
	start := time.Now()
	var processed, failed atomic.Int64

	workers := pool.New().WithMaxGoroutines(p.cfg.Concurrency)
	var drainErr error
	for {
		if err := ctx.Err(); err != nil {
			drainErr = err
			break
		}
		job, ok, err := p.queue.TryDequeue(ctx)
		if err != nil {
			if !errors.Is(err, queue.ErrClosed) {
				drainErr = err
			}
			break
		}
		if !ok {
			break
		}

		workers.Go(func() {
			processed.Add(1)
			if err := p.Process(ctx, job); err != nil {
				failed.Add(1)
			}
		})
	}
	workers.Wait()

	result := Result{
		Processed: int(processed.Load()),
		Failed:    int(failed.Load()),
		Duration:  time.Since(start),
	}
	result.Succeeded = result.Processed - result.Failed
	p.finish(ctx, result)
	return result, drainErr
}

// Run consumes jobs until ctx is cancelled or the queue is closed. Jobs already started are
// allowed to finish.
func (p *Processor) Run(ctx context.Context) error {
	p.logger.Info("Weather sync processor started", "concurrency", p.cfg.Concurrency, "attempts", p.cfg.Attempts)
	workers := pool.New().WithMaxGoroutines(p.cfg.Concurrency)
	defer workers.Wait()

	for {
		job, err := p.queue.Dequeue(ctx)
		switch {
		case err == nil:
		case errors.Is(err, queue.ErrClosed), ctx.Err() != nil:
			p.logger.Info("Weather sync processor stopped")
			return nil
		default:
			p.logger.Error("Failed to dequeue sync job", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		workers.Go(func() {
			_ = p.Process(ctx, job)
		})
	}
}

func (p *Processor) finish(ctx context.Context, result Result) {
	p.metrics.RecordSyncRun(result.Duration)
	if p.reporter != nil {
		p.reporter.RecordSyncRun(ctx, observability.SyncRunReport{
			Cities:    result.Processed,
			Succeeded: result.Succeeded,
			Failed:    result.Failed,
			Duration:  result.Duration,
		})
	}
	p.logger.Info("Weather sync run finished",
		"processed", result.Processed,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"duration", result.Duration.String(),
	)
}
