package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	appErrors "github.com/Mr-Georgie/weather-api/pkg/errors"

	"github.com/go-chi/chi/v5/middleware"
)

// Timeout gives each request a deadline. Handlers are expected to honour the context; if one
// returns after the deadline without writing anything, a 408 is sent for it.
func Timeout(timeout time.Duration, errorHandler *appErrors.ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			if ww.Status() == 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				errorHandler.Handle(w, r, appErrors.NewTimeoutError(r.Method+" "+r.URL.Path))
			}
		})
	}
}
