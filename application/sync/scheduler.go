// Package sync keeps cached forecasts for favorite cities warm. The scheduler enqueues one job
// per city and the processor refreshes them with bounded concurrency.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/Mr-Georgie/weather-api/application/ports"
	"github.com/Mr-Georgie/weather-api/infrastructure/queue"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs the sync every 30 minutes.
const DefaultSchedule = "*/30 * * * *"

// CityLister returns the cities that need refreshing.
type CityLister interface {
	DistinctCities(ctx context.Context) ([]string, error)
}

// Scheduler enqueues sync jobs on a cron schedule.
type Scheduler struct {
	schedule string
	cities   CityLister
	queue    queue.Queue
	logger   ports.Logger
	timeout  time.Duration
	cron     *cron.Cron
}

// NewScheduler validates schedule and builds a stopped scheduler.
func NewScheduler(schedule string, cities CityLister, q queue.Queue, logger ports.Logger) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", schedule, err)
	}

	cl := cronLogger{logger: logger}
	s := &Scheduler{
		schedule: schedule,
		cities:   cities,
		queue:    q,
		logger:   logger,
		timeout:  time.Minute,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}

	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return nil, fmt.Errorf("register sync schedule: %w", err)
	}
	return s, nil
}

// Schedule returns the cron expression in use.
func (s *Scheduler) Schedule() string {
	return s.schedule
}

// Start begins firing on schedule.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Weather sync scheduled", "schedule", s.schedule)
}

// Stop halts the schedule and waits for a running tick to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.EnqueueAll(ctx); err != nil {
		s.logger.Error("Weather sync enqueue failed", "error", err)
	}
}

// EnqueueAll adds one job per distinct favorite city and returns how many were queued.
func (s *Scheduler) EnqueueAll(ctx context.Context) (int, error) {
	cities, err := s.cities.DistinctCities(ctx)
	if err != nil {
		return 0, fmt.Errorf("list cities: %w", err)
	}

	now := time.Now().UTC()
	queued := 0
	for _, city := range cities {
		job := queue.Job{ID: uuid.NewString(), City: city, EnqueuedAt: now}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			return queued, fmt.Errorf("enqueue %s: %w", city, err)
		}
		queued++
	}

	s.logger.Info("Weather sync jobs enqueued", "count", queued)
	return queued, nil
}

// cronLogger routes cron's own logging through ports.Logger.
type cronLogger struct {
	logger ports.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
