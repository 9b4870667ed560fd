package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces repeated probe rounds using a token bucket.
//
// Each round consumes one token. Tokens refill at the configured rounds per
// second and up to burst rounds may start back to back after an idle period.
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a limiter allowing roundsPerSecond sustained rounds.
//
// Parameters:
//   - roundsPerSecond: sustained rate; fractional values space rounds more
//     than a second apart (0.5 = one round every two seconds)
//   - burst: rounds that may start without waiting; raised to 1 if lower
//
// A roundsPerSecond <= 0 disables pacing: every Wait returns immediately.
func New(roundsPerSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}

	limit := rate.Limit(roundsPerSecond)
	if roundsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &RateLimiter{limiter: rate.NewLimiter(limit, burst)}
}

// Unlimited reports whether pacing is disabled.
func (r *RateLimiter) Unlimited() bool {
	return r.limiter.Limit() == rate.Inf
}

// Allow reports whether a round may start now, consuming a token if so.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until the next round may start or ctx is done.
//
// Returns the context error if ctx is cancelled first, or an error if the
// deadline of ctx would pass before a token becomes available.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for probe slot: %w", err)
	}
	return nil
}

// Delay returns how long the next round would wait without consuming a token.
func (r *RateLimiter) Delay() time.Duration {
	if r.Unlimited() {
		return 0
	}
	res := r.limiter.Reserve()
	defer res.Cancel()
	return res.Delay()
}

// SetRate changes the sustained rate; values <= 0 disable pacing.
func (r *RateLimiter) SetRate(roundsPerSecond float64) {
	if roundsPerSecond <= 0 {
		r.limiter.SetLimit(rate.Inf)
		return
	}
	r.limiter.SetLimit(rate.Limit(roundsPerSecond))
}

// Tokens returns the rounds that could start right now (may be fractional).
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
