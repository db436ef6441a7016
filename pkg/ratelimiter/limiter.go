package ratelimiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter throttles requests against a single node.
// A nil *RateLimiter never blocks.
type RateLimiter struct {
	limiter *rate.Limiter
	burst   int
	rps     int
}

// NewRateLimiterFromRPS creates a rate limiter allowing rps requests per second with
// the given burst. rps <= 0 disables limiting and returns nil.
func NewRateLimiterFromRPS(rps int, burst int) *RateLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = rps
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		burst:   burst,
		rps:     rps,
	}
}

// Wait blocks until a token is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil {
		return nil
	}
	return rl.limiter.Wait(ctx)
}

// GetStats returns the tokens currently available, the burst size and the
// interval between refilled tokens. A nil limiter reports zeros.
func (rl *RateLimiter) GetStats() (available, capacity int, rateDuration time.Duration) {
	if rl == nil {
		return 0, 0, 0
	}
	available = int(rl.limiter.Tokens())
	if available < 0 {
		available = 0
	}
	capacity = rl.burst
	rateDuration = time.Second / time.Duration(rl.rps)
	return
}
