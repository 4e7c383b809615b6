// Package response provides shared JSON response helpers for HTTP handlers.
package response

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// Machine-readable error codes returned in ErrorBody.Code.
const (
	CodeInvalidFileType  = "INVALID_FILE_TYPE"
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeNoFile           = "NO_FILE"
	CodeUnexpectedFile   = "UNEXPECTED_FILE"
	CodeUploadError      = "UPLOAD_ERROR"
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeNotFound         = "NOT_FOUND"
	CodeRateLimited      = "RATE_LIMITED"
	CodeInternal         = "INTERNAL_ERROR"
	CodeRegistrationFail = "REGISTRATION_ERROR"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// JSON writes a JSON-encoded payload with the given HTTP status code.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK writes a 200 response with payload.
func OK(w http.ResponseWriter, payload any) {
	JSON(w, http.StatusOK, payload)
}

// Error writes an error response with the given status, message and code.
func Error(w http.ResponseWriter, status int, message, code string) {
	JSON(w, status, ErrorBody{Error: message, Code: code})
}

// BadRequest writes a 400 response.
func BadRequest(w http.ResponseWriter, message, code string) {
	Error(w, http.StatusBadRequest, message, code)
}

// Invalid writes a 400 response listing validation details.
func Invalid(w http.ResponseWriter, message string, details any) {
	JSON(w, http.StatusBadRequest, ErrorBody{Error: message, Code: CodeValidation, Details: details})
}

// Unauthorized writes a 401 response.
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

// NotFound writes a 404 response.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message, CodeNotFound)
}

// TooManyRequests writes a 429 response with a Retry-After hint in whole seconds.
func TooManyRequests(w http.ResponseWriter, message string, retryAfter time.Duration) {
	secs := int((retryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	JSON(w, http.StatusTooManyRequests, struct {
		ErrorBody
		RetryAfterSeconds int `json:"retry_after_seconds"`
	}{
		ErrorBody:         ErrorBody{Error: message, Code: CodeRateLimited},
		RetryAfterSeconds: secs,
	})
}

// InternalError writes a 500 response with a generic message.
func InternalError(w http.ResponseWriter, message, code string) {
	Error(w, http.StatusInternalServerError, message, code)
}
