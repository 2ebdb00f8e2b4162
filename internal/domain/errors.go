package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable classification carried across the
// public operations surface.
type ErrorKind string

const (
	ErrValidation     ErrorKind = "VALIDATION"
	ErrInvalidState   ErrorKind = "INVALID_STATE"
	ErrConflict       ErrorKind = "CONFLICT"
	ErrPayment        ErrorKind = "PAYMENT"
	ErrDuplicateProof ErrorKind = "DUPLICATE_PROOF"
	ErrOutOfOrder     ErrorKind = "OUT_OF_ORDER"
	ErrAuthFailure    ErrorKind = "AUTH_FAILURE"
	ErrAlreadyIssued  ErrorKind = "ALREADY_ISSUED"
	ErrTimedOut       ErrorKind = "TIMED_OUT"
	ErrNotFound       ErrorKind = "NOT_FOUND"
	ErrUnauthorized   ErrorKind = "UNAUTHORIZED"
)

// Error is the typed result returned by every engine operation that fails.
// CurrentStatus is populated for INVALID_STATE and CONFLICT so callers can
// resynchronize without a second fetch.
type Error struct {
	Kind          ErrorKind
	Message       string
	CurrentStatus TransactionStatus
	cause         error
}

func (e *Error) Error() string {
	if e.CurrentStatus != "" {
		return fmt.Sprintf("%s: %s (current status %s)", e.Kind, e.Message, e.CurrentStatus)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewError builds a typed error with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches an internal cause that is never serialized outward.
func WrapError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// StateError reports an operation illegal in the transaction's current state.
func StateError(current TransactionStatus, format string, args ...any) *Error {
	return &Error{Kind: ErrInvalidState, Message: fmt.Sprintf(format, args...), CurrentStatus: current}
}

// ConflictError reports a lost concurrent-mutation race. The caller must
// refetch and retry; the engine never retries on its own.
func ConflictError(current TransactionStatus) *Error {
	return &Error{Kind: ErrConflict, Message: "transaction was modified concurrently, refetch and retry", CurrentStatus: current}
}

// KindOf extracts the error kind, or empty string for untyped errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is a typed engine error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
