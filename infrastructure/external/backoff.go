package external

import (
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// Reference defaults for outbound calls.
const (
	DefaultRetries   = 3
	DefaultTimeout   = 5 * time.Second
	DefaultBaseDelay = time.Second
	DefaultMaxDelay  = 10 * time.Second
	DefaultJitter    = 100 * time.Millisecond
)

// RetryPolicy controls timeouts and retries of one outbound call. A call reads the
// policy once when it starts.
type RetryPolicy struct {
	// Retries is the number of additional attempts after the first one.
	Retries int `yaml:"retries"`
	// Timeout bounds each attempt separately.
	Timeout time.Duration `yaml:"timeout"`
	// BaseDelay is the wait before the first retry; it doubles for each further retry.
	BaseDelay time.Duration `yaml:"base_delay"`
	// MaxDelay caps the exponential part of the wait.
	MaxDelay time.Duration `yaml:"max_delay"`
	// Jitter is the half-width of the uniform random offset added to each wait.
	Jitter time.Duration `yaml:"jitter"`
}

// DefaultRetryPolicy returns the reference policy: 3 retries, 5s per attempt, 1s..10s backoff, ±100ms jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Retries:   DefaultRetries,
		Timeout:   DefaultTimeout,
		BaseDelay: DefaultBaseDelay,
		MaxDelay:  DefaultMaxDelay,
		Jitter:    DefaultJitter,
	}
}

// MaxAttempts is the total number of attempts the policy allows.
func (p RetryPolicy) MaxAttempts() int {
	return p.Retries + 1
}

// Validate rejects policies that cannot be executed.
func (p RetryPolicy) Validate() error {
	switch {
	case p.Retries < 0:
		return fmt.Errorf("retries must not be negative, got %d", p.Retries)
	case p.Timeout <= 0:
		return fmt.Errorf("timeout must be positive, got %s", p.Timeout)
	case p.BaseDelay <= 0:
		return fmt.Errorf("base delay must be positive, got %s", p.BaseDelay)
	case p.MaxDelay < p.BaseDelay:
		return fmt.Errorf("max delay %s is below base delay %s", p.MaxDelay, p.BaseDelay)
	case p.Jitter < 0:
		return fmt.Errorf("jitter must not be negative, got %s", p.Jitter)
	}
	return nil
}

// NewBackoff returns a fresh delay sequence for one call. The nth value is
// min(MaxDelay, BaseDelay*2^(n-1)) plus a uniform offset in [-Jitter, +Jitter),
// and the sequence stops after Retries values.
func NewBackoff(p RetryPolicy) retry.Backoff {
	b := retry.NewExponential(p.BaseDelay)
	b = retry.WithCappedDuration(p.MaxDelay, b)
	if p.Jitter > 0 {
		b = retry.WithJitter(p.Jitter, b)
	}
	return retry.WithMaxRetries(uint64(p.Retries), b)
}
