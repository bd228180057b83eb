package db

import (
	"math"
	"math/rand/v2"
	"time"
)

// RetryPolicy configures how many times the provider re-attempts the
// initial store connection and how long it waits between attempts.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// computeBackoff determines the wait before retry attempt+1 using
// exponential backoff with full jitter clamped to [MinWait, MaxWait].
func computeBackoff(attempt int, policy RetryPolicy) time.Duration {
	base := float64(policy.MinWait) * math.Pow(2, float64(attempt))
	maxWait := float64(policy.MaxWait)
	if base > maxWait {
		base = maxWait
	}

	// Full jitter: random value in [MinWait, base].
	minWait := float64(policy.MinWait)
	if base <= minWait {
		return policy.MinWait
	}
	jittered := minWait + rand.Float64()*(base-minWait)
	return time.Duration(jittered)
}
