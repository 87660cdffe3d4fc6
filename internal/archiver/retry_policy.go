package archiver

import (
	"context"
	"crypto/rand"
	"math"
	"math/big"
	"time"
)

// retryPolicy bounds the number of attempts at a layer above the transport
// and spaces them with jittered exponential backoff.
type retryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func newRetryPolicy(maxAttempts int, base, limit time.Duration) retryPolicy {
	return retryPolicy{maxAttempts: maxAttempts, baseDelay: base, maxDelay: limit}
}

// ShouldRetry reports whether another attempt follows the given one (1-based).
func (p retryPolicy) ShouldRetry(attempt int) bool {
	return attempt < p.maxAttempts
}

// Backoff returns the wait after the given attempt (1-based).
func (p retryPolicy) Backoff(attempt int) time.Duration {
	if p.baseDelay <= 0 {
		return 0
	}
	delay := float64(p.baseDelay) * math.Pow(2, float64(attempt-1))
	if p.maxDelay > 0 && delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}
	jitter := randomJitter(time.Duration(delay) / 2)
	return time.Duration(delay/2) + jitter
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
