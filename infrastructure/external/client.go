// Package external is the outbound HTTP client used for third-party APIs. It bounds each
// attempt with a timeout, retries transient failures with exponential backoff and jitter,
// and classifies the final failure.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/Mr-Georgie/weather-api/application/ports"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxResponseBytes = 4 << 20

// Attempt outcomes reported to MetricsRecorder.
const (
	OutcomeSuccess      = "success"
	OutcomeTimeout      = "timeout"
	OutcomeNonRetryable = "non_retryable"
	OutcomeUpstream     = "upstream_error"
	OutcomeTransport    = "transport_error"
)

// MetricsRecorder counts attempts per upstream host and outcome.
type MetricsRecorder interface {
	RecordUpstreamAttempt(host, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordUpstreamAttempt(string, string) {}

// Client performs outbound calls under a RetryPolicy.
type Client struct {
	httpClient *http.Client
	policy     atomic.Pointer[RetryPolicy]
	logger     ports.Logger
	metrics    MetricsRecorder
	tracer     trace.Tracer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithMetrics attaches an attempt recorder.
func WithMetrics(m MetricsRecorder) ClientOption {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

// NewClient creates a client. A nil httpClient gets a default one without its own timeout,
// since every attempt carries a context deadline.
func NewClient(httpClient *http.Client, policy RetryPolicy, logger ports.Logger, opts ...ClientOption) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	c := &Client{
		httpClient: httpClient,
		logger:     logger,
		metrics:    nopRecorder{},
		tracer:     otel.Tracer("github.com/Mr-Georgie/weather-api/infrastructure/external"),
	}
	c.policy.Store(&policy)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the policy new calls start with.
func (c *Client) Policy() RetryPolicy {
	return *c.policy.Load()
}

// SetPolicy replaces the default policy. Calls already in flight keep the policy they started with.
func (c *Client) SetPolicy(p RetryPolicy) {
	c.policy.Store(&p)
}

type requestConfig struct {
	timeout time.Duration
	retries *int
	headers map[string]string
}

// RequestOption overrides defaults for a single call.
type RequestOption func(*requestConfig)

// WithTimeout overrides the per-attempt timeout.
func WithTimeout(d time.Duration) RequestOption {
	return func(rc *requestConfig) { rc.timeout = d }
}

// WithRetries overrides the retry count. Zero means a single attempt.
func WithRetries(n int) RequestOption {
	return func(rc *requestConfig) { rc.retries = &n }
}

// WithHeader adds a request header.
func WithHeader(key, value string) RequestOption {
	return func(rc *requestConfig) { rc.headers[key] = value }
}

// Get fetches url and returns the raw response body.
func (c *Client) Get(ctx context.Context, rawURL string, opts ...RequestOption) ([]byte, error) {
	return c.do(ctx, http.MethodGet, rawURL, nil, opts)
}

// Post sends body as JSON and returns the raw response body.
func (c *Client) Post(ctx context.Context, rawURL string, body interface{}, opts ...RequestOption) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, rawURL, payload, opts)
}

// FetchJSON performs a GET and decodes the JSON body into T.
func FetchJSON[T any](ctx context.Context, c *Client, rawURL string, opts ...RequestOption) (T, error) {
	var out T
	body, err := c.Get(ctx, rawURL, opts...)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode response from %s: %w", RedactURL(rawURL), err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, rawURL string, payload []byte, opts []RequestOption) ([]byte, error) {
	policy := c.Policy()
	rc := requestConfig{headers: make(map[string]string)}
	for _, opt := range opts {
		opt(&rc)
	}
	if rc.timeout > 0 {
		policy.Timeout = rc.timeout
	}
	if rc.retries != nil && *rc.retries >= 0 {
		policy.Retries = *rc.retries
	}

	safeURL := RedactURL(rawURL)
	host := hostOf(rawURL)
	maxAttempts := policy.MaxAttempts()

	ctx, span := c.tracer.Start(ctx, "external."+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", safeURL),
			attribute.Int("retry.max_attempts", maxAttempts),
		))
	defer span.End()

	var (
		attempt int
		body    []byte
		lastErr *attemptError
	)

	inner := NewBackoff(policy)
	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		delay, stop := inner.Next()
		if !stop {
			c.logger.Warn("Upstream attempt failed, retrying",
				"url", safeURL,
				"attempt", attempt,
				"next_attempt", attempt+1,
				"max_attempts", maxAttempts,
				"delay", delay.String(),
				"error", lastErr,
			)
		}
		return delay, stop
	})

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		result, aerr := c.attempt(ctx, method, rawURL, payload, rc.headers, policy.Timeout)
		if aerr == nil {
			c.metrics.RecordUpstreamAttempt(host, OutcomeSuccess)
			body = result
			return nil
		}

		lastErr = aerr
		switch {
		case aerr.timedOut:
			c.metrics.RecordUpstreamAttempt(host, OutcomeTimeout)
		case IsNonRetryableStatus(aerr.statusCode):
			c.metrics.RecordUpstreamAttempt(host, OutcomeNonRetryable)
			return &NonRetryableError{URL: safeURL, StatusCode: aerr.statusCode, Message: aerr.message}
		case aerr.statusCode != 0:
			c.metrics.RecordUpstreamAttempt(host, OutcomeUpstream)
		default:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.metrics.RecordUpstreamAttempt(host, OutcomeTransport)
		}
		return retry.RetryableError(aerr)
	})
	span.SetAttributes(attribute.Int("retry.attempts", attempt))

	if err == nil {
		return body, nil
	}

	final := c.classify(ctx, err, safeURL, attempt, policy, lastErr)
	c.logger.Error("Upstream request failed",
		"url", safeURL,
		"method", method,
		"attempts", attempt,
		"error", final,
	)
	span.RecordError(final)
	span.SetStatus(codes.Error, final.Error())
	return nil, final
}

// classify turns the retry loop's result into the error surfaced to callers. A timeout on
// the last attempt wins over "retries exhausted".
func (c *Client) classify(ctx context.Context, err error, safeURL string, attempts int, policy RetryPolicy, lastErr *attemptError) error {
	var nonRetryable *NonRetryableError
	if errors.As(err, &nonRetryable) {
		return nonRetryable
	}

	if ctx.Err() != nil {
		return fmt.Errorf("request to %s abandoned: %w", safeURL, ctx.Err())
	}

	var aerr *attemptError
	if !errors.As(err, &aerr) {
		aerr = lastErr
	}
	if aerr == nil {
		return fmt.Errorf("request to %s failed: %w", safeURL, err)
	}

	if aerr.timedOut {
		return &TimeoutError{URL: safeURL, Timeout: policy.Timeout, Attempts: attempts}
	}

	exhausted := &RetriesExhaustedError{
		URL:        safeURL,
		Attempts:   attempts,
		StatusCode: aerr.statusCode,
		Message:    aerr.message,
		Err:        aerr.err,
	}
	if exhausted.Err == nil {
		exhausted.Err = aerr
	}
	return exhausted
}

// attempt performs one bounded call.
func (c *Client) attempt(ctx context.Context, method, rawURL string, payload []byte, headers map[string]string, timeout time.Duration) ([]byte, *attemptError) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, rawURL, reader)
	if err != nil {
		return nil, &attemptError{err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, attemptFailure(ctx, attemptCtx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, attemptFailure(ctx, attemptCtx, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	return nil, &attemptError{
		statusCode: resp.StatusCode,
		message:    upstreamMessage(body),
		err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
	}
}

// attemptFailure marks err as a timeout when the attempt deadline fired but the caller's context is still live.
func attemptFailure(parent, attemptCtx context.Context, err error) *attemptError {
	if parent.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return &attemptError{timedOut: true, err: err}
	}
	return &attemptError{err: err}
}

// upstreamError is the provider's error payload: {"error": {"code": 1006, "message": "..."}}.
type upstreamError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func upstreamMessage(body []byte) string {
	var payload upstreamError
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Error.Message
}

// RedactURL hides credentials carried in the query string.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	for _, name := range []string{"key", "api_key", "apikey", "token"} {
		if q.Has(name) {
			q.Set(name, "REDACTED")
		}
	}
	u.RawQuery = q.Encode()
	u.User = nil
	return u.String()
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "unknown"
	}
	return u.Host
}
