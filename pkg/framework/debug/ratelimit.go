package debug

import "sync/atomic"

// RateLimiter lets the first Limit occurrences through and counts the rest.
// Allow is safe on the audio thread.
type RateLimiter struct {
	limit int64
	count atomic.Int64
}

// NewRateLimiter creates a limiter that allows limit occurrences.
func NewRateLimiter(limit int) *RateLimiter {
	return &RateLimiter{limit: int64(limit)}
}

// Allow records an occurrence and reports whether it should be reported.
func (r *RateLimiter) Allow() bool {
	return r.count.Add(1) <= r.limit
}

// Count returns the number of recorded occurrences.
func (r *RateLimiter) Count() int64 {
	return r.count.Load()
}

// Suppressed returns how many occurrences were not allowed.
func (r *RateLimiter) Suppressed() int64 {
	if n := r.count.Load() - r.limit; n > 0 {
		return n
	}
	return 0
}

// Reset clears the occurrence count.
func (r *RateLimiter) Reset() {
	r.count.Store(0)
}
