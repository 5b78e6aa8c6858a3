package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		status int
		kind   ErrorType
	}{
		{"Should map validation to 400", NewValidationError("bad"), http.StatusBadRequest, ErrorTypeValidation},
		{"Should map bad request to 400", NewBadRequestError(CodeInvalidID, MsgInvalidID), http.StatusBadRequest, ErrorTypeBadRequest},
		{"Should map forbidden to 403", NewForbiddenError(""), http.StatusForbidden, ErrorTypeForbidden},
		{"Should map timeout to 408", NewTimeoutError("fetch"), http.StatusRequestTimeout, ErrorTypeTimeout},
		{"Should map rate limit to 429", NewRateLimitError(10, "1m0s"), http.StatusTooManyRequests, ErrorTypeRateLimit},
		{"Should map unavailable to 503", NewUnavailableError("cache"), http.StatusServiceUnavailable, ErrorTypeUnavailable},
		{"Should default external errors to 502", NewExternalError(0, CodeUpstreamError, MsgServerError, nil), http.StatusBadGateway, ErrorTypeExternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.kind, tt.err.Type)
			assert.NotEmpty(t, tt.err.StackTrace)
		})
	}

	t.Run("Should find the app error in a wrapped chain", func(t *testing.T) {
		cause := errors.New("boom")
		wrapped := fmt.Errorf("outer: %w", NewDatabaseError("insert", cause))

		assert.True(t, IsAppError(wrapped))
		assert.True(t, IsType(wrapped, ErrorTypeDatabase))
		assert.ErrorIs(t, wrapped, cause)
	})

	t.Run("Should keep an existing app error when wrapping", func(t *testing.T) {
		original := NewBadRequestError(CodeCityAlreadyExists, MsgCityAlreadyExists)

		assert.Same(t, original, Wrap(original, "ignored"))
		assert.True(t, HasCode(Wrap(original, "ignored"), CodeCityAlreadyExists))
		assert.Nil(t, Wrap(nil, "nothing"))
	})
}

func serve(h *ErrorHandler, fn func(w http.ResponseWriter, r *http.Request)) (*httptest.ResponseRecorder, ErrorResponse) {
	w := httptest.NewRecorder()
	fn(w, httptest.NewRequest(http.MethodGet, "/api/v1/weather/lagos", nil))

	var resp ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestErrorHandler(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	h := NewErrorHandler(zap.New(core), false)

	t.Run("Should render an app error with its code", func(t *testing.T) {
		w, resp := serve(h, func(w http.ResponseWriter, r *http.Request) {
			h.Handle(w, r, NewBadRequestError(CodeEmailAlreadyExists, MsgEmailAlreadyExists))
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "error", resp.Status)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, MsgEmailAlreadyExists, resp.Message)
		assert.Equal(t, CodeEmailAlreadyExists, resp.Code)
		assert.Nil(t, resp.Details)
	})

	t.Run("Should hide unknown errors", func(t *testing.T) {
		w, resp := serve(h, func(w http.ResponseWriter, r *http.Request) {
			h.Handle(w, r, errors.New("pq: connection refused"))
		})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, MsgServerError, resp.Message)
		assert.Equal(t, string(ErrorTypeInternal), resp.Type)
		assert.Equal(t, 1, logs.FilterLevelExact(zap.ErrorLevel).Len())
	})

	t.Run("Should keep upstream messages on external errors", func(t *testing.T) {
		_, resp := serve(h, func(w http.ResponseWriter, r *http.Request) {
			h.Handle(w, r, NewExternalError(http.StatusBadGateway, CodeUpstreamError, "upstream down", nil))
		})

		assert.Equal(t, "upstream down", resp.Message)
	})

	t.Run("Should type a bare status", func(t *testing.T) {
		w, resp := serve(h, func(w http.ResponseWriter, r *http.Request) {
			h.HandleStatus(w, r, http.StatusTooManyRequests, MsgTooManyRequests)
		})

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, string(ErrorTypeRateLimit), resp.Type)
	})

	t.Run("Should recover panics as internal errors", func(t *testing.T) {
		handler := h.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("nil map")
		}))

		w, resp := serve(h, handler.ServeHTTP)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, MsgServerError, resp.Message)
	})
}

func TestErrorHandlerDebug(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), true)

	t.Run("Should expose the stack trace without touching the error", func(t *testing.T) {
		appErr := NewRateLimitError(5, "1m0s")

		_, resp := serve(h, func(w http.ResponseWriter, r *http.Request) {
			h.Handle(w, r, appErr)
		})

		require.NotNil(t, resp.Details)
		assert.Contains(t, resp.Details, "stack_trace")
		assert.EqualValues(t, 5, resp.Details["limit"])
		assert.NotContains(t, appErr.Details, "stack_trace")
	})

	t.Run("Should expose the raw message of unknown errors", func(t *testing.T) {
		_, resp := serve(h, func(w http.ResponseWriter, r *http.Request) {
			h.Handle(w, r, errors.New("pq: connection refused"))
		})

		assert.Equal(t, "pq: connection refused", resp.Message)
	})
}
