package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a typed failure carrying a stable code for clients and the HTTP
// status it maps to.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target carries the same code, so clones and wraps of a
// predefined error still match it with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Transport level errors.
var (
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrRateLimited  = New("RATE_LIMITED", http.StatusTooManyRequests, "too many requests")
)

// ErrCacheMiss is returned by cache repositories; it never reaches a client.
var ErrCacheMiss = New("CACHE_MISS", http.StatusNotFound, "cache miss")

// Search and conversion errors. These are raised before any store query runs.
var (
	ErrInvalidTimezone         = New("INVALID_TIMEZONE", http.StatusBadRequest, "unknown timezone")
	ErrInvalidSearchParameters = New("INVALID_SEARCH_PARAMETERS", http.StatusBadRequest, "invalid search parameters")
)

// Booking and availability editing failures. Each maps to a distinct remedy in
// the calling UI.
var (
	ErrSlotAlreadyTaken = New("SLOT_ALREADY_TAKEN", http.StatusConflict, "slot already taken")
	ErrSlotBooked       = New("SLOT_BOOKED", http.StatusConflict, "slot is booked and cannot be changed")
	ErrTeacherNotFound  = New("TEACHER_NOT_FOUND", http.StatusNotFound, "teacher not found")
	ErrTodayLocked      = New("TODAY_LOCKED", http.StatusLocked, "same-day changes are locked")
	ErrPermissionDenied = New("PERMISSION_DENIED", http.StatusForbidden, "permission denied")
	ErrValidationFailed = New("VALIDATION_FAILED", http.StatusBadRequest, "validation failed")
)

// ErrDatastoreUnavailable marks transport failures against the data store.
// Callers may retry; the core does not interpret the cause further.
var ErrDatastoreUnavailable = New("DATASTORE_UNAVAILABLE", http.StatusServiceUnavailable, "data store unavailable, please retry")

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WrapAs wraps err with the code and status of a predefined error.
func WrapAs(err error, base *Error, message string) *Error {
	if message == "" {
		message = base.Message
	}
	return Wrap(err, base.Code, base.Status, message)
}

// Retryable reports whether a client may repeat the request unchanged.
func Retryable(err error) bool {
	e := FromError(err)
	if e == nil {
		return false
	}
	switch e.Status {
	case http.StatusServiceUnavailable, http.StatusTooManyRequests:
		return true
	}
	return false
}
