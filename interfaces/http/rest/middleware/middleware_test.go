package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Mr-Georgie/weather-api/pkg/auth"
	appErrors "github.com/Mr-Georgie/weather-api/pkg/errors"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newErrorHandler() *appErrors.ErrorHandler {
	return appErrors.NewErrorHandler(zap.NewNop(), false)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) appErrors.ErrorResponse {
	t.Helper()
	var resp appErrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuthenticate(t *testing.T) {
	tokens, err := auth.NewJWTService(auth.JWTConfig{SecretKey: "secret", Issuer: "weather-api", TTL: time.Hour})
	require.NoError(t, err)
	mw := Authenticate(tokens, newErrorHandler(), zap.NewNop())

	t.Run("Should put the caller in the context", func(t *testing.T) {
		token, err := tokens.GenerateToken("user-1", "ada@example.com")
		require.NoError(t, err)

		var seen *auth.UserContext
		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = auth.GetUserFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "user-1", seen.UserID)
		assert.Equal(t, "ada@example.com", seen.Email)
	})

	t.Run("Should accept the token cookie", func(t *testing.T) {
		token, err := tokens.GenerateToken("user-2", "grace@example.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
		req.AddCookie(&http.Cookie{Name: auth.TokenCookie, Value: token})
		w := httptest.NewRecorder()
		mw(http.HandlerFunc(okHandler)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Should reject missing and invalid tokens", func(t *testing.T) {
		for _, header := range []string{"", "Bearer not-a-jwt", "Basic abc"} {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			mw(http.HandlerFunc(okHandler)).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code, header)
			assert.Equal(t, appErrors.MsgUnauthorized, decodeError(t, w).Message)
		}
	})
}

func TestRateLimit(t *testing.T) {
	t.Run("Should answer 429 with headers once the limit is reached", func(t *testing.T) {
		limiter := auth.NewMemoryRateLimiter(2, time.Minute)
		handler := RateLimit(limiter, auth.ScopePublic, newErrorHandler(), zap.NewNop())(http.HandlerFunc(okHandler))

		var last *httptest.ResponseRecorder
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
			req.RemoteAddr = "10.0.0.1:5555"
			last = httptest.NewRecorder()
			handler.ServeHTTP(last, req)
		}

		assert.Equal(t, http.StatusTooManyRequests, last.Code)
		assert.Equal(t, "2", last.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, last.Header().Get("Retry-After"))
		assert.Equal(t, appErrors.MsgTooManyRequests, decodeError(t, last).Message)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.2:5555"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Should key authenticated requests on the user", func(t *testing.T) {
		limiter := auth.NewMemoryRateLimiter(1, time.Minute)
		handler := RateLimit(limiter, auth.ScopeAuthenticated, newErrorHandler(), zap.NewNop())(http.HandlerFunc(okHandler))

		for _, user := range []string{"u1", "u2"} {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/locations", nil)
			req.RemoteAddr = "10.0.0.1:5555"
			req = req.WithContext(auth.SetUserInContext(req.Context(), &auth.UserContext{UserID: user}))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code, user)
		}
	})
}

func TestCircuitBreaker(t *testing.T) {
	cfg := CircuitBreakerConfig{
		Name:             "weather",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      2,
	}

	t.Run("Should open after repeated server errors", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		calls := 0
		handler := CircuitBreaker(cfg, newErrorHandler(), zap.New(core), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusBadGateway)
		}))

		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/weather/lagos", nil))
			assert.Equal(t, http.StatusBadGateway, w.Code)
		}

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/weather/lagos", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, 2, calls)
		assert.Equal(t, 1, logs.FilterMessage("Circuit breaker state changed").Len())
	})

	t.Run("Should not count client errors", func(t *testing.T) {
		handler := CircuitBreaker(cfg, newErrorHandler(), zap.NewNop(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))

		for i := 0; i < 5; i++ {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/weather/x", nil))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		}
	})
}

func TestTimeout(t *testing.T) {
	t.Run("Should answer 408 when the handler gives up silently", func(t *testing.T) {
		handler := Timeout(10*time.Millisecond, newErrorHandler())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
		assert.Equal(t, http.StatusRequestTimeout, w.Code)
	})

	t.Run("Should leave fast responses alone", func(t *testing.T) {
		handler := Timeout(time.Second, newErrorHandler())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, hasDeadline := r.Context().Deadline()
			assert.True(t, hasDeadline)
			w.WriteHeader(http.StatusNoContent)
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fast", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

type recordedRequest struct {
	method, route string
	status        int
}

type fakeRecorder struct {
	requests []recordedRequest
}

func (f *fakeRecorder) RecordHTTPRequest(method, route string, status int, _ time.Duration) {
	f.requests = append(f.requests, recordedRequest{method, route, status})
}

func TestMetricsAndLogging(t *testing.T) {
	t.Run("Should label requests by route pattern", func(t *testing.T) {
		recorder := &fakeRecorder{}
		router := chi.NewRouter()
		router.Use(Metrics(recorder))
		router.Get("/api/v1/weather/{city}", okHandler)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/weather/lagos", nil))

		require.Len(t, recorder.requests, 1)
		assert.Equal(t, recordedRequest{"GET", "/api/v1/weather/{city}", 200}, recorder.requests[0])
	})

	t.Run("Should log method, path and duration", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		handler := Logger(zap.New(core))(http.HandlerFunc(okHandler))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Regexp(t, `^GET /api/v1/ping - \d+ms$`, entries[0].Message)
		assert.EqualValues(t, 200, entries[0].ContextMap()["status"])
	})

	t.Run("Should set security headers", func(t *testing.T) {
		w := httptest.NewRecorder()
		SecureHeaders(http.HandlerFunc(okHandler)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.Background()))

		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
		assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
	})
}
