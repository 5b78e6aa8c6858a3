package middleware

import (
	"errors"
	"net/http"
	"time"

	appErrors "github.com/Mr-Georgie/weather-api/pkg/errors"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// CircuitBreakerConfig holds configuration for circuit breaker
type CircuitBreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureThreshold is the failure ratio that opens the breaker once MinRequests were seen.
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultCircuitBreakerConfig returns a default configuration for circuit breaker
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// StateRecorder is told about breaker state changes.
type StateRecorder interface {
	SetCircuitBreakerState(name string, state int)
}

var errServerError = errors.New("handler responded with a server error")

// CircuitBreaker counts 5xx responses as failures and answers 503 without calling the
// handler while the breaker is open.
func CircuitBreaker(cfg CircuitBreakerConfig, errorHandler *appErrors.ErrorHandler, logger *zap.Logger, recorder StateRecorder) func(http.Handler) http.Handler {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if recorder != nil {
				recorder.SetCircuitBreakerState(name, int(to))
			}
		},
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, err := cb.Execute(func() (interface{}, error) {
				ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
				next.ServeHTTP(ww, r)
				if ww.Status() >= http.StatusInternalServerError {
					return nil, errServerError
				}
				return nil, nil
			})

			switch {
			case err == nil, errors.Is(err, errServerError):
				// the handler already wrote its response
			case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
				errorHandler.Handle(w, r, appErrors.NewUnavailableError(cfg.Name))
			default:
				errorHandler.Handle(w, r, appErrors.NewInternalError("circuit breaker failure").WithCause(err))
			}
		})
	}
}
