package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/archivooor/archivooor/internal/metrics"
	"github.com/archivooor/archivooor/internal/spn"
)

// Config controls the HTTP client and its retry policy.
type Config struct {
	UserAgent   string
	Timeout     time.Duration
	MaxRetries  int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// DefaultConfig returns the retry policy the archive API is tuned for.
func DefaultConfig() Config {
	return Config{
		UserAgent:   "archivooor",
		Timeout:     60 * time.Second,
		MaxRetries:  5,
		BackoffBase: 100 * time.Millisecond,
		BackoffMax:  5 * time.Second,
	}
}

// Waiter paces outgoing requests.
type Waiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Client issues authenticated requests through one pooled, retrying HTTP client.
// It is safe for concurrent use.
type Client struct {
	http       *retryablehttp.Client
	credential spn.Credential
	userAgent  string
	limiter    Waiter
}

// New builds a Client bound to the credential pair. limiter may be nil.
func New(cfg Config, credential spn.Credential, limiter Waiter, logger *zap.Logger) *Client {
	return &Client{
		http:       newRetryingClient(cfg, logger),
		credential: credential,
		userAgent:  cfg.UserAgent,
		limiter:    limiter,
	}
}

// PlainClient fetches third-party documents such as sitemaps with the same
// retry policy as Client but without credentials.
type PlainClient struct {
	rc  *retryablehttp.Client
	std *http.Client
}

// NewPlainClient builds a PlainClient. logger may be nil.
func NewPlainClient(cfg Config, logger *zap.Logger) *PlainClient {
	rc := newRetryingClient(cfg, logger)
	return &PlainClient{rc: rc, std: rc.StandardClient()}
}

// Do sends req through the retrying client.
func (p *PlainClient) Do(req *http.Request) (*http.Response, error) {
	return p.std.Do(req)
}

// Close releases idle pooled connections.
func (p *PlainClient) Close() {
	p.rc.HTTPClient.CloseIdleConnections()
}

func newRetryingClient(cfg Config, logger *zap.Logger) *retryablehttp.Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.RetryMax = cfg.MaxRetries
	rc.RetryWaitMin = cfg.BackoffBase
	rc.RetryWaitMax = cfg.BackoffMax
	rc.CheckRetry = CheckRetry
	rc.Backoff = Backoff
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = leveledLogger{s: logger.Named("http").Sugar()}
	rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			metrics.ObserveHTTPRetry(req.Method)
		}
	}
	rc.ResponseLogHook = func(_ retryablehttp.Logger, resp *http.Response) {
		method := http.MethodGet
		if resp.Request != nil {
			method = resp.Request.Method
		}
		metrics.ObserveHTTPResponse(method, resp.StatusCode)
	}
	return rc
}

// Get issues an authenticated GET.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, rawURL, nil, "")
}

// PostForm issues an authenticated form-encoded POST.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, rawURL, []byte(form.Encode()), "application/x-www-form-urlencoded")
}

// Close releases idle pooled connections.
func (c *Client) Close() {
	c.http.HTTPClient.CloseIdleConnections()
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, contentType string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, rawURL); err != nil {
			return nil, err
		}
	}

	var raw any
	if body != nil {
		raw = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, rawURL, raw)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", strings.ToLower(method), err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.credential.AuthorizationHeader())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ObserveHTTPDuration(method, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, stripQuery(rawURL), err)
	}
	return resp, nil
}

// stripQuery drops the query string, which only carries cache-busting values.
func stripQuery(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
