package ratelimit

import (
	"fmt"
	"time"
)

// Decision is the outcome of one admission check
type Decision struct {
	Admitted          bool
	RetryAfterSeconds int
}

// Limiter applies a fixed-window counter per caller key. A caller at the
// boundary of two windows can get up to twice the limit through in a short
// span; that is the accepted cost of keeping the scheme this simple.
type Limiter struct {
	store   Store
	purpose string
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewLimiter creates a limiter over the given store. The purpose string
// namespaces keys so several limiters can share one store.
func NewLimiter(store Store, purpose string, limit int, window time.Duration) *Limiter {
	return &Limiter{
		store:   store,
		purpose: purpose,
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Admit checks whether the caller may proceed inside the current window.
// RetryAfterSeconds is the time left until the window rolls over, and is
// set on rejections so callers know when to come back.
func (l *Limiter) Admit(callerKey string) (Decision, error) {
	now := l.now()
	windowStart := now.Truncate(l.window)
	windowEnd := windowStart.Add(l.window)
	key := fmt.Sprintf("%s:%s:%d", l.purpose, callerKey, windowStart.UnixMilli())

	retryAfter := int((windowEnd.Sub(now) + time.Second - 1) / time.Second)
	if retryAfter < 0 {
		retryAfter = 0
	}

	admitted, err := l.store.Admit(key, l.limit, now, windowEnd)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit store: %w", err)
	}

	if !admitted {
		return Decision{Admitted: false, RetryAfterSeconds: retryAfter}, nil
	}

	return Decision{Admitted: true, RetryAfterSeconds: retryAfter}, nil
}
