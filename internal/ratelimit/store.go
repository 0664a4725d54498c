package ratelimit

import "time"

// Store holds fixed-window admission counters. Implementations must make
// Admit atomic with respect to concurrent callers sharing the same key.
type Store interface {
	// Admit increments the counter for key when it is below limit, creating
	// it with count 1 and the given expiry when absent. It returns false
	// when the counter has already reached the limit.
	Admit(key string, limit int, now, expiresAt time.Time) (bool, error)

	// Sweep removes window records that expired before the given instant.
	Sweep(before time.Time) error
}
