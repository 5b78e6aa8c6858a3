package auth

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rate limit scopes.
const (
	ScopePublic        = "public"
	ScopeAuthenticated = "authenticated"
)

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// SetHeaders writes the X-RateLimit-* headers, plus Retry-After when the request is denied.
func (d Decision) SetHeaders(h http.Header) {
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
	if !d.Allowed {
		retry := int(time.Until(d.ResetAt).Seconds())
		if retry < 1 {
			retry = 1
		}
		h.Set("Retry-After", strconv.Itoa(retry))
	}
}

// RateLimiter provides rate limiting functionality
type RateLimiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	Reset(ctx context.Context, key string) error
	Limit() int
	Window() time.Duration
}

// RedisRateLimiter counts requests per fixed window with INCR and PEXPIRE, so every
// instance behind a load balancer shares the same counters.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRedisRateLimiter creates a limiter allowing limit requests per window.
func NewRedisRateLimiter(client *redis.Client, limit int, win time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, limit: limit, window: win}
}

func (r *RedisRateLimiter) Limit() int            { return r.limit }
func (r *RedisRateLimiter) Window() time.Duration { return r.window }

// Allow increments the counter for key. Store errors fail open: the request is allowed and
// the error is returned for logging.
func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	open := Decision{Allowed: true, Limit: r.limit, Remaining: r.limit, ResetAt: time.Now().Add(r.window)}

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return open, fmt.Errorf("rate limiter error (failing open): %w", err)
	}

	ttl, err := r.client.PTTL(ctx, key).Result()
	if err != nil {
		return open, fmt.Errorf("rate limiter error (failing open): %w", err)
	}
	// A counter without expiry is either new or left behind by a crash between INCR and PEXPIRE.
	if ttl < 0 {
		if err := r.client.PExpire(ctx, key, r.window).Err(); err != nil {
			return open, fmt.Errorf("rate limiter error (failing open): %w", err)
		}
		ttl = r.window
	}

	return newDecision(r.limit, int(count), time.Now().Add(ttl)), nil
}

// Reset clears the counter for key.
func (r *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// MemoryRateLimiter is the single-process fixed window limiter used when no Redis is configured.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	window  time.Duration
	now     func() time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

// NewMemoryRateLimiter creates a limiter allowing limit requests per window.
func NewMemoryRateLimiter(limit int, win time.Duration) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		window:  win,
		now:     time.Now,
	}
}

func (l *MemoryRateLimiter) Limit() int            { return l.limit }
func (l *MemoryRateLimiter) Window() time.Duration { return l.window }

// Allow checks if a request is allowed
func (l *MemoryRateLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, exists := l.windows[key]
	if !exists || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(l.window)}
		l.windows[key] = w
		l.sweep(now)
	}
	w.count++

	return newDecision(l.limit, w.count, w.resetAt), nil
}

// Reset resets the rate limit for a key
func (l *MemoryRateLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.windows, key)
	return nil
}

// sweep drops expired windows. Called with the lock held whenever a window is opened.
func (l *MemoryRateLimiter) sweep(now time.Time) {
	for key, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, key)
		}
	}
}

// ReloadableLimiter delegates to a limiter that can be replaced while requests are in flight.
type ReloadableLimiter struct {
	current atomic.Value
}

type limiterBox struct{ RateLimiter }

// NewReloadableLimiter wraps initial.
func NewReloadableLimiter(initial RateLimiter) *ReloadableLimiter {
	l := &ReloadableLimiter{}
	l.Swap(initial)
	return l
}

// Swap replaces the underlying limiter. Counters are not carried over.
func (l *ReloadableLimiter) Swap(next RateLimiter) {
	l.current.Store(limiterBox{next})
}

func (l *ReloadableLimiter) get() RateLimiter {
	return l.current.Load().(limiterBox).RateLimiter
}

func (l *ReloadableLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	return l.get().Allow(ctx, key)
}

func (l *ReloadableLimiter) Reset(ctx context.Context, key string) error {
	return l.get().Reset(ctx, key)
}

func (l *ReloadableLimiter) Limit() int            { return l.get().Limit() }
func (l *ReloadableLimiter) Window() time.Duration { return l.get().Window() }

func newDecision(limit, count int, resetAt time.Time) Decision {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}
