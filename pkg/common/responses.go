package common

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// Response statuses carried in the envelope.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Success messages.
const (
	MsgSuccess       = "Request successful"
	MsgCreated       = "Created successfully"
	MsgSignupSuccess = "Signup successful"
	MsgLoginSuccess  = "Login successful"
)

// APIResponse is the envelope every REST endpoint answers with.
type APIResponse struct {
	Status     string      `json:"status"`
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
}

// RespondJSON sends a success envelope
func RespondJSON(w http.ResponseWriter, status int, message string, data interface{}) {
	response := APIResponse{
		Status:     StatusSuccess,
		StatusCode: status,
		Message:    message,
		Data:       data,
	}
	if status >= 400 {
		response.Status = StatusError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

// RespondOK sends a 200 with the generic success message
func RespondOK(w http.ResponseWriter, data interface{}) {
	RespondJSON(w, http.StatusOK, MsgSuccess, data)
}

// ErrEmptyBody is returned by ParseJSONBody when the request has no body.
var ErrEmptyBody = errors.New("request body is empty")

// ParseJSONBody parses JSON request body with size limit
func ParseJSONBody(r *http.Request, v interface{}, maxBytes int64) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}

	return nil
}
