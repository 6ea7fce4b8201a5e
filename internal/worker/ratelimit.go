package worker

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter throttles writes to the target database
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows perSecond operations per second. Zero or less means unlimited.
func NewRateLimiter(perSecond int) *RateLimiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the next operation is allowed
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return ctx.Err()
	}
	return r.limiter.Wait(ctx)
}

// Unlimited reports whether the limiter never blocks
func (r *RateLimiter) Unlimited() bool {
	return r == nil || r.limiter.Limit() == rate.Inf
}
