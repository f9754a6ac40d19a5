package common

import (
	"errors"
	"net/http"
)

// ErrorKind classifies an AppError for callers and for the HTTP layer.
type ErrorKind string

const (
	KindValidation   ErrorKind = "VALIDATION_ERROR"
	KindPrecondition ErrorKind = "PRECONDITION_FAILED"
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindForbidden    ErrorKind = "FORBIDDEN"
	KindConflict     ErrorKind = "CONFLICT"
	KindConcurrency  ErrorKind = "CONCURRENT_MODIFICATION"
	KindInternal     ErrorKind = "SERVER_ERROR"
)

// AppError is a typed failure with a human readable reason.
// Two AppErrors match under errors.Is when kind and message agree, so a sentinel
// wrapped with its cause still matches the bare sentinel.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

// Wrap returns a copy of the error carrying cause.
func (e *AppError) Wrap(cause error) *AppError {
	return &AppError{Kind: e.Kind, Message: e.Message, Err: cause}
}

// Retryable reports whether the operation may succeed if sent again unchanged.
func (e *AppError) Retryable() bool {
	return e.Kind == KindConcurrency
}

func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindValidation, KindPrecondition:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict, KindConcurrency:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind ErrorKind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Ledger failures.
var (
	ErrMissingFields          = newError(KindValidation, "all fields are required")
	ErrInvalidTransactionType = newError(KindValidation, "invalid operation type")
	ErrInvalidQuantity        = newError(KindValidation, "quantity must be greater than zero")
	ErrNegativeAdjustTarget   = newError(KindValidation, "quantity cannot be negative")
	ErrAdjustmentNoteRequired = newError(KindValidation, "adjustment note is required")
	ErrInvalidBranch          = newError(KindPrecondition, "invalid or closed branch")
	ErrInvalidProduct         = newError(KindPrecondition, "invalid or inactive product")
	ErrInventoryNotFound      = newError(KindPrecondition, "inventory does not exist")
	ErrInsufficientStock      = newError(KindConflict, "insufficient stock")
	ErrConcurrentModification = newError(KindConcurrency, "concurrent modification, retry the operation")
)

// Tenant and membership failures.
var (
	ErrInvalidPlan             = newError(KindValidation, "invalid tenant plan")
	ErrInvalidTenantStatus     = newError(KindValidation, "invalid tenant status")
	ErrInvalidRole             = newError(KindValidation, "invalid role category")
	ErrInvalidEmail            = newError(KindValidation, "a valid email is required")
	ErrTenantNotFound          = newError(KindNotFound, "tenant not found")
	ErrDuplicateInvitation     = newError(KindConflict, "an active invitation already exists for this email")
	ErrDuplicateMembership     = newError(KindConflict, "user already a member of this tenant")
	ErrInvitationNotFound      = newError(KindNotFound, "invalid or expired invitation")
	ErrInvitationEmailMismatch = newError(KindForbidden, "this invitation is not intended for your account")
	ErrInvitationExpired       = newError(KindPrecondition, "invitation expired")
	ErrNotMember               = newError(KindForbidden, "not a member of this tenant")
	ErrInsufficientRole        = newError(KindForbidden, "insufficient permissions")
)

// NewValidationError wraps a request validation failure.
func NewValidationError(err error) *AppError {
	return &AppError{Kind: KindValidation, Message: "validation failed", Err: err}
}

// NewInternalError wraps an unexpected failure such as a storage error.
func NewInternalError(message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

// AsAppError extracts an AppError from err, treating anything else as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError("internal server error", err)
}

// IsRetryable reports whether err is a storage-level conflict a caller may retry.
func IsRetryable(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Retryable()
}
