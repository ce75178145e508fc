package hunter

import (
	"errors"
	"time"

	"github.com/helixir/paper-retrieval-service/internal/domain"
)

const (
	// DefaultMaxRetries is the per-source retry cap.
	DefaultMaxRetries = 2

	// DefaultRetryBaseDelay is the first backoff interval.
	DefaultRetryBaseDelay = 500 * time.Millisecond

	// DefaultRetryMaxDelay caps the backoff growth.
	DefaultRetryMaxDelay = 5 * time.Second
)

// RetryPolicy controls per-source retry behavior during the walk. Only
// rate-limited and transient failures are retried; not-found and fatal
// failures move straight to the next source.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// BaseDelay is the backoff before the first retry; it doubles per attempt.
	BaseDelay time.Duration

	// MaxDelay caps the backoff.
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns the standard bounded backoff policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultRetryBaseDelay,
		MaxDelay:   DefaultRetryMaxDelay,
	}
}

// applyDefaults fills unset fields with the default policy.
func (p *RetryPolicy) applyDefaults() {
	if p.MaxRetries == 0 {
		p.MaxRetries = DefaultMaxRetries
	}
	if p.BaseDelay == 0 {
		p.BaseDelay = DefaultRetryBaseDelay
	}
	if p.MaxDelay == 0 {
		p.MaxDelay = DefaultRetryMaxDelay
	}
}

// Retryable reports whether the failure is worth another attempt against
// the same source.
func (p RetryPolicy) Retryable(err error) bool {
	return errors.Is(err, domain.ErrRateLimited) || errors.Is(err, domain.ErrTransient)
}

// Delay returns the backoff before retry number attempt (zero-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := p.BaseDelay << attempt
	if delay > p.MaxDelay || delay <= 0 {
		return p.MaxDelay
	}
	return delay
}

// errorClass maps a source failure to a stable label for logs and metrics.
func errorClass(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotApplicable):
		return "not_applicable"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrTransient):
		return "transient"
	case errors.Is(err, domain.ErrFatal):
		return "fatal"
	default:
		return "other"
	}
}
