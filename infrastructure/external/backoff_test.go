package external

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBackoff(t *testing.T) {
	t.Run("Should stay within the jittered exponential bounds", func(t *testing.T) {
		policy := DefaultRetryPolicy()
		policy.Retries = 8

		for run := 0; run < 50; run++ {
			b := NewBackoff(policy)
			for n := 1; n <= policy.Retries; n++ {
				delay, stop := b.Next()
				require.False(t, stop)

				exp := time.Duration(math.Pow(2, float64(n-1))) * policy.BaseDelay
				capped := exp
				if capped > policy.MaxDelay {
					capped = policy.MaxDelay
				}
				lower := capped - policy.Jitter
				upper := capped + policy.Jitter

				assert.GreaterOrEqual(t, delay, lower, "retry %d", n)
				assert.LessOrEqual(t, delay, upper, "retry %d", n)
			}
		}
	})

	t.Run("Should stop after the configured retries", func(t *testing.T) {
		policy := fastPolicy(2)
		b := NewBackoff(policy)

		_, stop := b.Next()
		assert.False(t, stop)
		_, stop = b.Next()
		assert.False(t, stop)
		_, stop = b.Next()
		assert.True(t, stop)
	})

	t.Run("Should double without jitter", func(t *testing.T) {
		policy := RetryPolicy{Retries: 5, Timeout: time.Second, BaseDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond}
		b := NewBackoff(policy)

		var got []time.Duration
		for {
			d, stop := b.Next()
			if stop {
				break
			}
			got = append(got, d)
		}
		assert.Equal(t, []time.Duration{
			10 * time.Millisecond,
			20 * time.Millisecond,
			40 * time.Millisecond,
			50 * time.Millisecond,
			50 * time.Millisecond,
		}, got)
	})
}

func TestRetryPolicyValidate(t *testing.T) {
	assert.NoError(t, DefaultRetryPolicy().Validate())

	cases := map[string]RetryPolicy{
		"negative retries": {Retries: -1, Timeout: time.Second, BaseDelay: time.Second, MaxDelay: time.Second},
		"zero timeout":     {Retries: 1, BaseDelay: time.Second, MaxDelay: time.Second},
		"max below base":   {Retries: 1, Timeout: time.Second, BaseDelay: 2 * time.Second, MaxDelay: time.Second},
		"negative jitter":  {Retries: 1, Timeout: time.Second, BaseDelay: time.Second, MaxDelay: time.Second, Jitter: -1},
	}
	for name, policy := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, policy.Validate())
		})
	}
	assert.Equal(t, 4, DefaultRetryPolicy().MaxAttempts())
}
