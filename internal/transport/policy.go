package transport

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// StatusWebServerUnknownError is Cloudflare's catch-all origin error.
const StatusWebServerUnknownError = 520

var retryableStatuses = map[int]struct{}{
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
	StatusWebServerUnknownError:    {},
}

// Retry-After is only honored for the statuses that define it.
var retryAfterStatuses = map[int]struct{}{
	http.StatusRequestEntityTooLarge: {},
	http.StatusTooManyRequests:       {},
	http.StatusServiceUnavailable:    {},
}

// RetryableStatus reports whether a response status triggers an automatic retry.
func RetryableStatus(code int) bool {
	_, ok := retryableStatuses[code]
	return ok
}

func retryableMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodPost
}

// CheckRetry decides whether a request should be retried.
// Network errors are classified by retryablehttp's default policy; responses
// are retried only for GET/POST with a transient status.
func CheckRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	if resp == nil {
		return false, nil
	}
	if resp.Request != nil && !retryableMethod(resp.Request.Method) {
		return false, nil
	}
	return RetryableStatus(resp.StatusCode), nil
}

// Backoff returns the wait before the next attempt. A server-supplied
// Retry-After wins; otherwise the first retry is immediate and later ones
// wait base*2^attempt, capped at limit.
func Backoff(base, limit time.Duration, attempt int, resp *http.Response) time.Duration {
	if wait, ok := retryAfter(resp, time.Now()); ok {
		return wait
	}
	if attempt <= 0 || base <= 0 {
		return 0
	}
	delay := float64(base) * math.Pow(2, float64(attempt))
	if limit > 0 && delay > float64(limit) {
		delay = float64(limit)
	}
	return time.Duration(delay)
}

func retryAfter(resp *http.Response, now time.Time) (time.Duration, bool) {
	if resp == nil {
		return 0, false
	}
	if _, ok := retryAfterStatuses[resp.StatusCode]; !ok {
		return 0, false
	}
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(header); err == nil {
		if secs < 0 {
			return 0, true
		}
		return time.Duration(secs) * time.Second, true
	}
	at, err := http.ParseTime(header)
	if err != nil {
		return 0, false
	}
	wait := at.Sub(now)
	if wait < 0 {
		wait = 0
	}
	return wait, true
}
