// Package retry provides the single retry-with-classification primitive
// used for every broker interaction. Callers get uniform attempt
// accounting and backoff instead of hand-rolled loops.
package retry

import "time"

// Backoff returns how long to sleep before attempt n (n starts at 1 for
// the delay preceding the second attempt).
type Backoff func(attempt int) time.Duration

// Sleeper performs the actual wait. Injectable so tests run instantly.
type Sleeper func(time.Duration)

// Linear scales the base delay by the retry index: base, 2*base, ...
func Linear(base time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return base * time.Duration(attempt)
	}
}

// Classifier decides whether an error is worth another attempt.
type Classifier func(error) bool

// Do runs op up to maxAttempts times, sleeping backoff(i) between
// attempts. It stops early when op succeeds or when retryable reports
// the error as not worth retrying. Returns the number of attempts made
// and the last error (nil on success).
func Do(op func() error, maxAttempts int, backoff Backoff, retryable Classifier, sleep Sleeper) (int, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if sleep == nil {
		sleep = time.Sleep
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = op(); err == nil {
			return attempt, nil
		}
		if retryable != nil && !retryable(err) {
			return attempt, err
		}
		if attempt < maxAttempts && backoff != nil {
			sleep(backoff(attempt))
		}
	}
	return maxAttempts, err
}
