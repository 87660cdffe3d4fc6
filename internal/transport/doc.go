// Package transport wraps a single pooled HTTP client with the retry policy
// used for every Save Page Now request: bounded automatic retries on
// transient server statuses, Retry-After support, exponential backoff, the
// LOW authorization header, and optional client-side pacing.
package transport
