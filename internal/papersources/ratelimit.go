package papersources

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a per-source request budget. Every client owns one,
// sized from its API's published policy, so a batch hunt fanning out over the
// chain cannot hammer any single upstream. Safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter allowing perSecond sustained requests with
// the given burst headroom. Fractional rates work: 0.5 means one request
// every two seconds.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Wait blocks until the next request is allowed or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Allow reports whether a request may proceed right now, consuming a token
// when it may.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Throttle halves the sustained rate, down to a floor of one request per
// minute. The HTTP client calls this when an upstream answers 429 without a
// Retry-After hint, so repeat offenses back the source off progressively.
func (r *RateLimiter) Throttle() {
	const floor = rate.Limit(1.0 / 60.0)

	next := r.limiter.Limit() / 2
	if next < floor {
		next = floor
	}
	r.limiter.SetLimit(next)
}

// Rate returns the current sustained rate in requests per second.
func (r *RateLimiter) Rate() float64 {
	return float64(r.limiter.Limit())
}
