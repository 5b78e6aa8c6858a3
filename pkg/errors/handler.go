package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorResponse is the error envelope returned to API clients.
type ErrorResponse struct {
	Status     string                 `json:"status"`
	StatusCode int                    `json:"statusCode"`
	Message    string                 `json:"message"`
	Type       string                 `json:"type"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	RequestID  string                 `json:"requestId,omitempty"`
}

// ErrorHandler turns errors into JSON error envelopes. In debug mode internal messages and
// stack traces are exposed to the client.
type ErrorHandler struct {
	logger *zap.Logger
	debug  bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	return &ErrorHandler{logger: logger, debug: debug}
}

// Handle writes the response for err. Errors that are not an *AppError become a 500.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	appErr := GetAppError(err)
	if appErr == nil {
		appErr = NewInternalError(MsgServerError).WithCause(err)
		if h.debug {
			appErr.Message = err.Error()
		}
	}

	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	resp := h.envelope(r, status, appErr.Type, h.clientMessage(appErr, status))
	resp.Code = appErr.Code
	resp.Details = appErr.Details
	if h.debug && appErr.StackTrace != "" {
		details := make(map[string]interface{}, len(appErr.Details)+1)
		for k, v := range appErr.Details {
			details[k] = v
		}
		details["stack_trace"] = appErr.StackTrace
		resp.Details = details
	}

	h.log(r, status, appErr)
	h.write(w, status, resp)
}

// HandleStatus writes an error envelope for a bare status, such as 405 from the router.
func (h *ErrorHandler) HandleStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	appErr := newError(typeForStatus(status), status, message)
	h.log(r, status, appErr)
	h.write(w, status, h.envelope(r, status, appErr.Type, message))
}

// clientMessage hides internal failure details outside debug mode.
func (h *ErrorHandler) clientMessage(err *AppError, status int) string {
	if status >= 500 && err.Type == ErrorTypeInternal && !h.debug {
		return MsgServerError
	}
	return err.Message
}

func (h *ErrorHandler) envelope(r *http.Request, status int, t ErrorType, message string) ErrorResponse {
	return ErrorResponse{
		Status:     "error",
		StatusCode: status,
		Message:    message,
		Type:       string(t),
		RequestID:  middleware.GetReqID(r.Context()),
	}
}

// log reports 5xx at error level and everything else at warn.
func (h *ErrorHandler) log(r *http.Request, status int, err *AppError) {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("error_type", string(err.Type)),
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if err.Code != "" {
		fields = append(fields, zap.String("error_code", err.Code))
	}
	if err.Cause != nil {
		fields = append(fields, zap.Error(err.Cause))
	}
	if len(err.Details) > 0 {
		fields = append(fields, zap.Any("details", err.Details))
	}

	if status >= 500 {
		h.logger.Error(err.Message, fields...)
		return
	}
	h.logger.Warn(err.Message, fields...)
}

func (h *ErrorHandler) write(w http.ResponseWriter, status int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}

var statusTypes = map[int]ErrorType{
	http.StatusBadRequest:         ErrorTypeBadRequest,
	http.StatusUnauthorized:       ErrorTypeUnauthorized,
	http.StatusForbidden:          ErrorTypeForbidden,
	http.StatusNotFound:           ErrorTypeNotFound,
	http.StatusRequestTimeout:     ErrorTypeTimeout,
	http.StatusTooManyRequests:    ErrorTypeRateLimit,
	http.StatusServiceUnavailable: ErrorTypeUnavailable,
	http.StatusBadGateway:         ErrorTypeExternal,
}

func typeForStatus(status int) ErrorType {
	if t, ok := statusTypes[status]; ok {
		return t
	}
	if status < 500 {
		return ErrorTypeBadRequest
	}
	return ErrorTypeInternal
}

// Middleware recovers panics and renders them as internal errors.
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			h.Handle(w, r, NewInternalError(fmt.Sprintf("panic: %v", rec)))
		}()

		next.ServeHTTP(w, r)
	})
}
