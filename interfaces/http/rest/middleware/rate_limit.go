package middleware

import (
	"net"
	"net/http"

	"github.com/Mr-Georgie/weather-api/infrastructure/cache"
	"github.com/Mr-Georgie/weather-api/pkg/auth"
	appErrors "github.com/Mr-Georgie/weather-api/pkg/errors"

	"go.uber.org/zap"
)

// RateLimit counts requests per scope. The public scope keys on the client address; the
// authenticated scope keys on the user and must run after Authenticate.
func RateLimit(limiter auth.RateLimiter, scope string, errorHandler *appErrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := clientIP(r)
			if scope == auth.ScopeAuthenticated {
				if user, err := auth.GetUserFromContext(r.Context()); err == nil {
					subject = user.UserID
				}
			}

			decision, err := limiter.Allow(r.Context(), cache.RateLimitKey(scope, subject))
			if err != nil {
				logger.Warn("Rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
			}
			decision.SetHeaders(w.Header())

			if !decision.Allowed {
				errorHandler.Handle(w, r, appErrors.NewRateLimitError(limiter.Limit(), limiter.Window().String()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP relies on chi's RealIP having already rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
