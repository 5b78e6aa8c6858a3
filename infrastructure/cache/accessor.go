package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Mr-Georgie/weather-api/application/ports"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MetricsRecorder receives cache outcome counters, labelled by key namespace.
type MetricsRecorder interface {
	RecordCacheHit(namespace string)
	RecordCacheMiss(namespace string)
	RecordCacheError(namespace, op string)
}

type nopRecorder struct{}

func (nopRecorder) RecordCacheHit(string)           {}
func (nopRecorder) RecordCacheMiss(string)          {}
func (nopRecorder) RecordCacheError(string, string) {}

// Accessor serves values from a Store and fills misses from a producer.
//
// Concurrent misses on the same key each run the producer; the last write wins.
type Accessor struct {
	store   Store
	logger  ports.Logger
	metrics MetricsRecorder
	tracer  trace.Tracer
}

// Option configures an Accessor.
type Option func(*Accessor)

// WithMetrics attaches a metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(a *Accessor) {
		if m != nil {
			a.metrics = m
		}
	}
}

// NewAccessor creates an accessor over store
func NewAccessor(store Store, logger ports.Logger, opts ...Option) *Accessor {
	a := &Accessor{
		store:   store,
		logger:  logger,
		metrics: nopRecorder{},
		tracer:  otel.Tracer("github.com/Mr-Georgie/weather-api/infrastructure/cache"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Store returns the underlying store.
func (a *Accessor) Store() Store {
	return a.store
}

// Set encodes value as JSON and stores it under key.
func (a *Accessor) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value for %q: %w", key, err)
	}
	if err := a.store.Set(ctx, key, payload, ttl); err != nil {
		a.metrics.RecordCacheError(Namespace(key), OpSet)
		return &CacheBackendError{Op: OpSet, Key: key, Err: err}
	}
	return nil
}

// Delete evicts key.
func (a *Accessor) Delete(ctx context.Context, key string) error {
	if err := a.store.Delete(ctx, key); err != nil {
		a.metrics.RecordCacheError(Namespace(key), OpDelete)
		return &CacheBackendError{Op: OpDelete, Key: key, Err: err}
	}
	a.logger.Debug("Cache entry removed", "key", key)
	return nil
}

// lookup returns the raw payload for key. A stored JSON null counts as a miss.
func (a *Accessor) lookup(ctx context.Context, key string) ([]byte, bool, error) {
	raw, found, err := a.store.Get(ctx, key)
	if err != nil {
		a.metrics.RecordCacheError(Namespace(key), OpGet)
		return nil, false, &CacheBackendError{Op: OpGet, Key: key, Err: err}
	}
	if !found || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false, nil
	}
	return raw, true, nil
}

// Get decodes the cached value for key into T.
func Get[T any](ctx context.Context, a *Accessor, key string) (T, bool, error) {
	var zero T

	raw, found, err := a.lookup(ctx, key)
	if err != nil || !found {
		return zero, false, err
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		a.logger.Warn("Discarding undecodable cache entry", "key", key, "error", err)
		return zero, false, nil
	}
	return value, true, nil
}

// GetOrCompute returns the cached value for key, or runs produce on a miss and caches its
// result for ttl. A producer error is returned unchanged and nothing is written. Store
// failures surface as *CacheBackendError.
func GetOrCompute[T any](ctx context.Context, a *Accessor, key string, ttl time.Duration, produce func(context.Context) (T, error)) (T, error) {
	ctx, span := a.tracer.Start(ctx, "cache.GetOrCompute",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	namespace := Namespace(key)

	value, found, err := Get[T](ctx, a, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cache lookup failed")
		return value, err
	}
	if found {
		a.metrics.RecordCacheHit(namespace)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		a.logger.Debug("Cache hit", "key", key)
		return value, nil
	}

	a.metrics.RecordCacheMiss(namespace)
	span.SetAttributes(attribute.Bool("cache.hit", false))
	a.logger.Debug("Cache miss", "key", key)

	value, err = produce(ctx)
	if err != nil {
		var zero T
		span.RecordError(err)
		span.SetStatus(codes.Error, "producer failed")
		return zero, err
	}

	if err := a.Set(ctx, key, value, ttl); err != nil {
		var zero T
		span.RecordError(err)
		span.SetStatus(codes.Error, "cache write failed")
		return zero, err
	}

	a.logger.Debug("Cache filled", "key", key, "ttl", ttl.String())
	return value, nil
}
