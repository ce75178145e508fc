package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for source failure classification.
var (
	// ErrNotFound indicates that a source has no record of the paper.
	ErrNotFound = errors.New("not found")

	// ErrNotApplicable indicates that a source cannot serve the identifier
	// kind it was asked about. The coordinator skips these silently.
	ErrNotApplicable = errors.New("not applicable")

	// ErrRateLimited indicates that a source rejected the request due to
	// rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrTransient indicates a temporary failure (network error, 5xx) that
	// may succeed on retry.
	ErrTransient = errors.New("transient failure")

	// ErrFatal indicates a non-retryable failure such as a malformed request
	// or an authentication problem.
	ErrFatal = errors.New("fatal failure")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCancelled indicates that an operation was cancelled.
	ErrCancelled = errors.New("cancelled")
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NotFoundError records which source failed to locate which identifier.
type NotFoundError struct {
	Source     string
	Identifier string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: no record for %s", e.Source, e.Identifier)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// RateLimitError provides details about a rate limit error. RetryAfter is
// zero when the source did not supply a Retry-After hint.
type RateLimitError struct {
	Source     string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by %s: retry after %s", e.Source, e.RetryAfter)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// ExternalAPIError provides details about an external API error. Its Unwrap
// chain carries the failure-kind sentinel so callers can classify with
// errors.Is without inspecting status codes.
type ExternalAPIError struct {
	Source     string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ExternalAPIError) Unwrap() error {
	return e.Cause
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(source, identifier string) *NotFoundError {
	return &NotFoundError{
		Source:     source,
		Identifier: identifier,
	}
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewRateLimitError creates a new RateLimitError.
func NewRateLimitError(source string, retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{
		Source:     source,
		RetryAfter: retryAfter,
	}
}

// NewExternalAPIError creates a new ExternalAPIError. The cause should carry
// one of the classification sentinels; status-based helpers below pick the
// right one.
func NewExternalAPIError(source string, statusCode int, message string, cause error) *ExternalAPIError {
	return &ExternalAPIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}

// ClassifyStatus maps an HTTP status code to the failure-kind sentinel used
// by the retry policy. 404 is NotFound, 429 is RateLimited, 5xx is Transient,
// and remaining 4xx are Fatal.
func ClassifyStatus(statusCode int) error {
	switch {
	case statusCode == 404:
		return ErrNotFound
	case statusCode == 429:
		return ErrRateLimited
	case statusCode >= 500:
		return ErrTransient
	default:
		return ErrFatal
	}
}
