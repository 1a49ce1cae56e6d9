// Package backoff provides the exponential delay policy shared by the
// training client and the collaboration feed.
package backoff

import (
	"context"
	"math"
	"time"
)

// Policy computes reconnect and retry delays. The zero value is unusable;
// build one with New or use Default.
type Policy struct {
	// Base is the delay before the first retry.
	Base time.Duration
	// Cap bounds the delay regardless of attempt count.
	Cap time.Duration
	// MaxAttempts limits how many retries are made. Zero means unlimited.
	MaxAttempts int
}

// Default matches the service-wide retry behaviour: 1s base doubling up
// to a 30s ceiling.
func Default() Policy {
	return Policy{
		Base: time.Second,
		Cap:  30 * time.Second,
	}
}

// New builds a policy, substituting defaults for non-positive values.
func New(base, cap time.Duration, maxAttempts int) Policy {
	if base <= 0 {
		base = time.Second
	}
	if cap <= 0 {
		cap = 30 * time.Second
	}
	return Policy{Base: base, Cap: cap, MaxAttempts: maxAttempts}
}

// Delay returns the wait before retry number attempt, counted from 1.
// The delay doubles with each attempt and is clamped to the cap.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := time.Duration(math.Pow(2, float64(attempt-1))) * p.Base
	if delay > p.Cap || delay <= 0 {
		delay = p.Cap
	}
	return delay
}

// Exhausted reports whether the attempt count has used up the policy.
func (p Policy) Exhausted(attempt int) bool {
	return p.MaxAttempts > 0 && attempt > p.MaxAttempts
}

// Wait sleeps for the attempt's delay, returning early with the context
// error if the context is cancelled first.
func (p Policy) Wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(p.Delay(attempt))
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
