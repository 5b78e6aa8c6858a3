package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Mr-Georgie/weather-api/infrastructure/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reading struct {
	TempC     float64 `json:"temp_c"`
	Condition string  `json:"condition"`
}

// failingStore lets tests inject backend errors per operation.
type failingStore struct {
	*MemoryStore
	getErr error
	setErr error
	delErr error
	sets   atomic.Int32
}

func newFailingStore() *failingStore {
	return &failingStore{MemoryStore: NewMemoryStore(0)}
}

func (s *failingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *failingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.sets.Add(1)
	if s.setErr != nil {
		return s.setErr
	}
	return s.MemoryStore.Set(ctx, key, value, ttl)
}

func (s *failingStore) Delete(ctx context.Context, key string) error {
	if s.delErr != nil {
		return s.delErr
	}
	return s.MemoryStore.Delete(ctx, key)
}

type countingRecorder struct {
	hits, misses, errs atomic.Int32
}

func (r *countingRecorder) RecordCacheHit(string)           { r.hits.Add(1) }
func (r *countingRecorder) RecordCacheMiss(string)          { r.misses.Add(1) }
func (r *countingRecorder) RecordCacheError(string, string) { r.errs.Add(1) }

func TestGetOrCompute(t *testing.T) {
	ctx := context.Background()

	t.Run("Should call the producer once for sequential calls", func(t *testing.T) {
		store := NewMemoryStore(0)
		metrics := &countingRecorder{}
		accessor := NewAccessor(store, logging.NewNop(), WithMetrics(metrics))

		var calls atomic.Int32
		produce := func(context.Context) (reading, error) {
			calls.Add(1)
			return reading{TempC: 34.4, Condition: "Partly cloudy"}, nil
		}

		key := CurrentWeatherKey("Lagos")
		first, err := GetOrCompute(ctx, accessor, key, 5*time.Minute, produce)
		require.NoError(t, err)
		second, err := GetOrCompute(ctx, accessor, key, 5*time.Minute, produce)
		require.NoError(t, err)

		assert.Equal(t, "weather:current:lagos", key)
		assert.Equal(t, reading{TempC: 34.4, Condition: "Partly cloudy"}, first)
		assert.Equal(t, first, second)
		assert.EqualValues(t, 1, calls.Load())
		assert.EqualValues(t, 1, metrics.hits.Load())
		assert.EqualValues(t, 1, metrics.misses.Load())
	})

	t.Run("Should propagate producer errors without writing", func(t *testing.T) {
		store := newFailingStore()
		accessor := NewAccessor(store, logging.NewNop())
		boom := errors.New("upstream down")

		for i := 0; i < 3; i++ {
			_, err := GetOrCompute(ctx, accessor, "user:1", time.Minute, func(context.Context) (*reading, error) {
				return nil, boom
			})
			assert.Same(t, boom, err)
		}

		assert.EqualValues(t, 0, store.sets.Load())
		assert.Equal(t, 0, store.Len())
	})

	t.Run("Should surface a backend error on lookup instead of a miss", func(t *testing.T) {
		store := newFailingStore()
		store.getErr = errors.New("connection refused")
		metrics := &countingRecorder{}
		accessor := NewAccessor(store, logging.NewNop(), WithMetrics(metrics))

		called := false
		_, err := GetOrCompute(ctx, accessor, "user:2", time.Minute, func(context.Context) (int, error) {
			called = true
			return 1, nil
		})

		var backendErr *CacheBackendError
		require.ErrorAs(t, err, &backendErr)
		assert.Equal(t, OpGet, backendErr.Op)
		assert.Equal(t, "user:2", backendErr.Key)
		assert.False(t, called)
		assert.EqualValues(t, 1, metrics.errs.Load())
	})

	t.Run("Should surface a backend error on write", func(t *testing.T) {
		store := newFailingStore()
		store.setErr = errors.New("read only replica")
		accessor := NewAccessor(store, logging.NewNop())

		_, err := GetOrCompute(ctx, accessor, "user:3", time.Minute, func(context.Context) (int, error) {
			return 7, nil
		})

		var backendErr *CacheBackendError
		require.ErrorAs(t, err, &backendErr)
		assert.Equal(t, OpSet, backendErr.Op)
	})

	t.Run("Should treat a stored null as a miss", func(t *testing.T) {
		store := NewMemoryStore(0)
		require.NoError(t, store.Set(ctx, "user:4", []byte("null"), time.Minute))
		accessor := NewAccessor(store, logging.NewNop())

		value, err := GetOrCompute(ctx, accessor, "user:4", time.Minute, func(context.Context) (string, error) {
			return "fresh", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "fresh", value)
	})

	t.Run("Should recompute after the entry expires", func(t *testing.T) {
		store := NewMemoryStore(0)
		now := time.Now()
		store.now = func() time.Time { return now }
		accessor := NewAccessor(store, logging.NewNop())

		var calls int
		produce := func(context.Context) (int, error) {
			calls++
			return calls, nil
		}

		v1, err := GetOrCompute(ctx, accessor, "weather:forecast:abuja", time.Hour, produce)
		require.NoError(t, err)
		now = now.Add(time.Hour)
		v2, err := GetOrCompute(ctx, accessor, "weather:forecast:abuja", time.Hour, produce)
		require.NoError(t, err)

		assert.Equal(t, 1, v1)
		assert.Equal(t, 2, v2)
	})
}

func TestAccessorDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("Should evict so the next read recomputes", func(t *testing.T) {
		accessor := NewAccessor(NewMemoryStore(0), logging.NewNop())
		require.NoError(t, accessor.Set(ctx, "user:5", "cached", time.Minute))
		require.NoError(t, accessor.Delete(ctx, "user:5"))

		_, found, err := Get[string](ctx, accessor, "user:5")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Should wrap store failures", func(t *testing.T) {
		store := newFailingStore()
		store.delErr = errors.New("timeout")
		accessor := NewAccessor(store, logging.NewNop())

		err := accessor.Delete(ctx, "user:6")
		var backendErr *CacheBackendError
		require.ErrorAs(t, err, &backendErr)
		assert.Equal(t, OpDelete, backendErr.Op)
	})
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "weather:forecast:new york", ForecastKey("  New York "))
	assert.Equal(t, "user:abc", UserKey("abc"))
	assert.Equal(t, "ratelimit:public:1.2.3.4", RateLimitKey("public", "1.2.3.4"))
	assert.Equal(t, "weather:current:", Namespace(CurrentWeatherKey("lagos")))
}
