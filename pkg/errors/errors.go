package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness. Fields carries
// per-field validation messages when the error originated from input checks.
type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Status  int               `json:"status"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
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

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid phone number or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "an unexpected error occurred")

	// Participation ledger errors.
	ErrCapacityExceeded      = New("CAPACITY_EXCEEDED", http.StatusBadRequest, "activity has reached its required number of participants")
	ErrInvalidTransition     = New("INVALID_TRANSITION", http.StatusBadRequest, "invalid participation status transition")
	ErrDuplicateRegistration = New("DUPLICATE_REGISTRATION", http.StatusBadRequest, "user already holds an active registration for this activity")
	ErrScheduleOverlap       = New("SCHEDULE_OVERLAP", http.StatusBadRequest, "there is already an activity scheduled during the specified time")
	ErrRegistrationClosed    = New("REGISTRATION_CLOSED", http.StatusBadRequest, "cannot register for activities that have already started")
	ErrOutsideActivityWindow = New("OUTSIDE_ACTIVITY_WINDOW", http.StatusBadRequest, "can only mark attendance during the activity timeframe")
	ErrFeedbackWithoutAttend = New("FEEDBACK_WITHOUT_ATTENDANCE", http.StatusBadRequest, "feedback requires an attended participation record")

	// ErrCacheMiss signals an absent cache entry; never surfaced to callers.
	ErrCacheMiss = New("CACHE_MISS", http.StatusInternalServerError, "cache miss")
)

// Validation builds a field-level validation error.
func Validation(message string, fields map[string]string) *Error {
	e := Clone(ErrValidation, message)
	e.Fields = fields
	return e
}

// Field builds a validation error for a single field.
func Field(field, message string) *Error {
	return Validation(message, map[string]string{field: message})
}

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

// InvalidTransition reports a disallowed status change naming both statuses.
func InvalidTransition(from, to string) *Error {
	return Clone(ErrInvalidTransition, fmt.Sprintf("cannot change status from %s to %s", from, to))
}
