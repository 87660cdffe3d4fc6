// Package metrics exposes Prometheus collectors for the archive client.
package metrics

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes recorded by ObserveSubmission.
const (
	OutcomeAccepted   = "accepted"
	OutcomeHTTPError  = "http_error"
	OutcomeFailed     = "failed"
	OutcomeUnresolved = "unresolved"
)

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	httpRetriesTotal           *prometheus.CounterVec
	submissionsTotal           *prometheus.CounterVec
	retryPassesTotal           prometheus.Counter
	activeWorkers              prometheus.Gauge
	rateLimitDelaySeconds      *prometheus.HistogramVec
	statusPollsTotal           *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archivooor_http_requests_total",
				Help: "Total number of HTTP responses received, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "archivooor_http_request_duration_seconds",
				Help:    "Histogram of end-to-end request latencies including transport retries.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"method"},
		)

		httpRetriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archivooor_http_retries_total",
				Help: "Total number of automatic transport retries, labeled by method.",
			},
			[]string{"method"},
		)

		submissionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archivooor_submissions_total",
				Help: "Total number of submission attempts, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		retryPassesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "archivooor_retry_passes_total",
				Help: "Total number of pipeline passes that resubmitted failed URLs.",
			},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "archivooor_active_workers",
				Help: "Number of workers currently submitting a URL.",
			},
		)

		rateLimitDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "archivooor_rate_limit_delay_seconds",
				Help:    "Histogram of client-side rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"host"},
		)

		statusPollsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archivooor_status_polls_total",
				Help: "Total number of job status queries, labeled by reported status.",
			},
			[]string{"status"},
		)
	})
}

// SanitizeHost extracts a lowercase hostname from a URL.
// It returns "unknown" if the URL is invalid.
func SanitizeHost(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// ObserveHTTPResponse counts a response by method and status code.
func ObserveHTTPResponse(method string, code int) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

// ObserveHTTPDuration records the latency of a logical request.
func ObserveHTTPDuration(method string, duration time.Duration) {
	Init()
	httpRequestDurationSeconds.WithLabelValues(method).Observe(duration.Seconds())
}

// ObserveHTTPRetry counts one automatic transport retry.
func ObserveHTTPRetry(method string) {
	Init()
	httpRetriesTotal.WithLabelValues(method).Inc()
}

// ObserveSubmission counts a submission attempt by outcome.
func ObserveSubmission(outcome string) {
	Init()
	submissionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRetryPass counts a pipeline pass that resubmits failures.
func ObserveRetryPass() {
	Init()
	retryPassesTotal.Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	Init()
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	Init()
	activeWorkers.Dec()
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(host string, duration time.Duration) {
	Init()
	rateLimitDelaySeconds.WithLabelValues(host).Observe(duration.Seconds())
}

// ObserveStatusPoll counts a job status query by the status it reported.
func ObserveStatusPoll(status string) {
	Init()
	if status == "" {
		status = "none"
	}
	statusPollsTotal.WithLabelValues(status).Inc()
}

// WriteTextfile dumps the default registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	Init()
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
