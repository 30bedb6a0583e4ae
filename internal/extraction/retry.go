package extraction

import (
	"errors"
	"math/rand/v2"
	"time"
)

// IsRetryable reports whether a recognition error is worth retrying.
// Transport failures and 5xx responses are transient; 4xx responses mean the
// payload itself was rejected and retrying cannot help.
func IsRetryable(err error) bool {
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr.Status >= 500
	}
	return true
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}
