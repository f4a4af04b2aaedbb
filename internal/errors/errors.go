// Package errors provides centralized error definitions and classification
// helpers for the deepscout codebase.
//
// The taxonomy mirrors the recovery policy of the research engine:
//
//   - ExecutorError: a single subtask failed (timeout, upstream 5xx). The
//     orchestrator substitutes an empty result and the run continues.
//   - ExtractionError: a judgment delegate's response could not be parsed.
//     Callers fall back to a degraded structure with low confidence.
//   - InconclusiveError: the validator could not reach a verdict. Converted
//     to a LOW-confidence validation result, never surfaced.
//   - TimeoutError: an operation exceeded its deadline. Retryable.
//   - ConfigError: missing required credentials or services. The only
//     category that aborts a run, before any state transition.
//
// Use IsFatal to decide whether an error may interrupt the control loop;
// everything non-fatal is recovered locally with degraded confidence.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Re-export standard library functions so callers can import only this
// package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Sentinel errors.
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrEmptyBatch indicates that a batch contained no queries.
	ErrEmptyBatch = New("batch contains no queries")
	// ErrItemNotFound indicates that a memory item could not be found.
	ErrItemNotFound = New("memory item not found")
	// ErrMissingCredentials indicates required credentials are absent.
	ErrMissingCredentials = New("missing required credentials")
	// ErrNoExecutor indicates no executor is registered for a role.
	ErrNoExecutor = New("no executor registered for role")
)

// ExecutorError represents a failure of a single executor subtask. It is
// transient by definition: the orchestrator records it in the affected
// result slot and the run continues.
type ExecutorError struct {
	Role  string
	Query string
	cause error
}

// NewExecutorError creates an ExecutorError for the given role and query.
func NewExecutorError(role, query string, cause error) *ExecutorError {
	return &ExecutorError{Role: role, Query: query, cause: cause}
}

func (e *ExecutorError) Error() string {
	if e.Query != "" {
		return fmt.Sprintf("executor error [role=%s, query=%q]: %v", e.Role, e.Query, e.cause)
	}
	return fmt.Sprintf("executor error [role=%s]: %v", e.Role, e.cause)
}

func (e *ExecutorError) Unwrap() error { return e.cause }

// ExtractionError indicates that a judgment delegate produced output that
// could not be parsed into the expected structure. The raw response is
// retained for debugging.
type ExtractionError struct {
	Raw   string
	cause error
}

// NewExtractionError creates an ExtractionError retaining the raw response.
func NewExtractionError(raw string, cause error) *ExtractionError {
	return &ExtractionError{Raw: raw, cause: cause}
}

func (e *ExtractionError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("extraction failed: %v", e.cause)
	}
	return "extraction failed: no parsable structure in response"
}

func (e *ExtractionError) Unwrap() error { return e.cause }

// InconclusiveError indicates that the fact validator could not reach a
// verdict for a claim.
type InconclusiveError struct {
	Claim string
	cause error
}

// NewInconclusiveError creates an InconclusiveError for the given claim.
func NewInconclusiveError(claim string, cause error) *InconclusiveError {
	return &InconclusiveError{Claim: claim, cause: cause}
}

func (e *InconclusiveError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("validation inconclusive for %q: %v", e.Claim, e.cause)
	}
	return fmt.Sprintf("validation inconclusive for %q", e.Claim)
}

func (e *InconclusiveError) Unwrap() error { return e.cause }

// TimeoutError represents an operation that exceeded its deadline.
type TimeoutError struct {
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{Operation: operation, Duration: duration}
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout: %s (after %s)", e.Operation, e.Duration)
}

// Is matches TimeoutError against the ErrTimeout sentinel.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// ConfigError represents a fatal configuration problem: missing credentials
// or an unreachable required service. It is the sole error category that
// halts a run, and it does so before any state transition.
type ConfigError struct {
	Field string
	cause error
}

// NewConfigError creates a ConfigError for the given configuration field.
func NewConfigError(field string, cause error) *ConfigError {
	return &ConfigError{Field: field, cause: cause}
}

func (e *ConfigError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("configuration error [%s]: %v", e.Field, e.cause)
	}
	return fmt.Sprintf("configuration error [%s]", e.Field)
}

func (e *ConfigError) Unwrap() error { return e.cause }

// IsFatal reports whether the error must abort the run. Only configuration
// errors qualify; every other category is recovered locally.
func IsFatal(err error) bool {
	var cfg *ConfigError
	return As(err, &cfg)
}

// IsRetryable reports whether the error represents a transient condition
// that may succeed on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var exec *ExecutorError
	var timeout *TimeoutError
	return As(err, &exec) || As(err, &timeout) || Is(err, ErrTimeout)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
