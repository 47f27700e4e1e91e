package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the dispatch core. Every error that leaves an executor
// or the governor wraps exactly one of these so classification stays a
// single errors.Is chain.
var (
	ErrValidation         = fmt.Errorf("invalid arguments")
	ErrToolNotFound       = fmt.Errorf("tool not found")
	ErrBackendUnavailable = fmt.Errorf("backend unavailable")
	ErrRateLimited        = fmt.Errorf("rate limit exceeded")
	ErrTransient          = fmt.Errorf("transient backend failure")
	ErrFatal              = fmt.Errorf("permanent backend failure")

	// ErrAuthInvalid is a FatalFailure specialization kept separate so the
	// connectors can report credential problems distinctly in logs.
	ErrAuthInvalid = fmt.Errorf("authentication failed: %w", ErrFatal)

	// ErrNotFound covers missing repositories, users, collections.
	ErrNotFound = fmt.Errorf("not found: %w", ErrFatal)
)

// DomainError wraps a sentinel error with operation context.
type DomainError struct {
	Op     string // operation name (e.g., "mongodb.find")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Retryable reports whether the error is worth another attempt.
func Retryable(err error) bool {
	_, retry := Classify(err)
	return retry
}

// Classify maps an error to its envelope kind and retryable flag.
// Unrecognized errors are internal: they indicate a bug, not a caller or
// backend condition, and are never marked retryable.
func Classify(err error) (ErrorKind, bool) {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation, false
	case errors.Is(err, ErrToolNotFound):
		return KindUnknownTool, false
	case errors.Is(err, ErrBackendUnavailable):
		return KindBackendUnavailable, true
	case errors.Is(err, ErrRateLimited):
		return KindRateLimitExceeded, true
	case errors.Is(err, ErrTransient):
		return KindTransientFailure, true
	case errors.Is(err, ErrFatal):
		return KindFatalFailure, false
	default:
		return KindInternal, false
	}
}
