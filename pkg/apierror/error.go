package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Code identifies the class of a failure.
type Code string

const (
	CodeAccessDenied      Code = "ACCESS_DENIED"
	CodeNotFound          Code = "NOT_FOUND"
	CodeServerUnavailable Code = "SERVER_UNAVAILABLE"
	CodeClientError       Code = "CLIENT_ERROR"
	CodeUnknownStatus     Code = "UNKNOWN_STATUS"
	CodeCacheReadFailure  Code = "CACHE_READ_FAILURE"
	CodeCacheWriteFailure Code = "CACHE_WRITE_FAILURE"
	CodeBadRequest        Code = "BAD_REQUEST"
	CodeInternal          Code = "INTERNAL_ERROR"
)

// Error is a classified failure. StatusCode is the HTTP status used when the
// error is rendered by the API; Status is the upstream status that caused it.
type Error struct {
	StatusCode int    `json:"-"`
	Code       Code   `json:"code"`
	Message    string `json:"message"`
	Status     int    `json:"status,omitempty"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Code, so errors.Is(err, apierror.NotFound())
// works without comparing messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ToJSON converts the error to JSON bytes.
func (e *Error) ToJSON() []byte {
	body := map[string]interface{}{
		"code":    e.Code,
		"message": e.Message,
	}
	if e.Status != 0 {
		body["status"] = e.Status
	}

	data, _ := json.Marshal(map[string]interface{}{
		"success": false,
		"error":   body,
	})
	return data
}

// As extracts the classified error from err's chain.
func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// CodeOf returns the code of the classified error in err's chain, or
// CodeInternal when err is unclassified. A nil error yields "".
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if apiErr, ok := As(err); ok {
		return apiErr.Code
	}
	return CodeInternal
}

// AccessDenied is returned for 403 responses: a private or nonexistent resource.
func AccessDenied() *Error {
	return &Error{
		StatusCode: http.StatusForbidden,
		Code:       CodeAccessDenied,
		Message:    "No access. The resource is private or does not exist.",
		Status:     http.StatusForbidden,
	}
}

// NotFound is returned for 404 responses.
func NotFound() *Error {
	return &Error{
		StatusCode: http.StatusNotFound,
		Code:       CodeNotFound,
		Message:    "Resource not found.",
		Status:     http.StatusNotFound,
	}
}

// ServerUnavailable is returned for 5xx responses.
func ServerUnavailable(status int) *Error {
	return &Error{
		StatusCode: http.StatusBadGateway,
		Code:       CodeServerUnavailable,
		Message:    fmt.Sprintf("Server error occurred with code: %d", status),
		Status:     status,
	}
}

// ClientError is returned for 4xx responses of the marketplace page.
func ClientError(status int) *Error {
	return &Error{
		StatusCode: http.StatusBadGateway,
		Code:       CodeClientError,
		Message:    fmt.Sprintf("Request rejected with code: %d", status),
		Status:     status,
	}
}

// UnknownStatus is returned for any status without a dedicated class.
// A transport failure is reported with status 0 and the cause in Err.
func UnknownStatus(status int) *Error {
	msg := fmt.Sprintf("Unexpected response with code: %d", status)
	if status == 0 {
		msg = "Request failed before a response was received"
	}
	return &Error{
		StatusCode: http.StatusBadGateway,
		Code:       CodeUnknownStatus,
		Message:    msg,
		Status:     status,
	}
}

// CacheReadFailure wraps a storage error raised while reading the cache.
func CacheReadFailure(err error) *Error {
	return &Error{
		StatusCode: http.StatusInternalServerError,
		Code:       CodeCacheReadFailure,
		Message:    "Failed to read cached data",
		Err:        err,
	}
}

// CacheWriteFailure wraps a storage error raised while writing the cache.
func CacheWriteFailure(err error) *Error {
	return &Error{
		StatusCode: http.StatusInternalServerError,
		Code:       CodeCacheWriteFailure,
		Message:    "Failed to write cached data",
		Err:        err,
	}
}

// BadRequest creates a 400 Bad Request error.
func BadRequest(message string) *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Code:       CodeBadRequest,
		Message:    message,
	}
}

// InternalError creates a 500 Internal Server Error.
func InternalError(message string) *Error {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return &Error{
		StatusCode: http.StatusInternalServerError,
		Code:       CodeInternal,
		Message:    message,
	}
}

// WithCause attaches the underlying error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}
