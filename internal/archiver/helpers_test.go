package archiver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/archivooor/archivooor/internal/clock/system"
	"github.com/archivooor/archivooor/internal/spn"
)

var errConnReset = errors.New("connection reset by peer")

type call struct {
	method string
	url    string
	form   url.Values
}

type reply struct {
	status int
	body   string
	err    error
}

// fakeClient answers requests from a per-URL script. The last scripted reply
// for a key repeats once the script is exhausted.
type fakeClient struct {
	mu       sync.Mutex
	calls    []call
	scripts  map[string][]reply
	seen     map[string]int
	fallback reply
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		scripts:  map[string][]reply{},
		seen:     map[string]int{},
		fallback: reply{status: http.StatusOK, body: `{"job_id":"spn2-default"}`},
	}
}

func (f *fakeClient) script(key string, replies ...reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[key] = replies
}

func (f *fakeClient) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	return f.respond(ctx, call{method: http.MethodGet, url: rawURL})
}

func (f *fakeClient) PostForm(ctx context.Context, rawURL string, form url.Values) (*http.Response, error) {
	return f.respond(ctx, call{method: http.MethodPost, url: rawURL, form: form})
}

func (f *fakeClient) respond(ctx context.Context, c call) (*http.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := c.url
	if c.form != nil {
		key = c.form.Get("url")
	} else if i := strings.IndexByte(key, '?'); i >= 0 {
		key = key[:i]
	}

	f.mu.Lock()
	f.calls = append(f.calls, c)
	r := f.fallback
	if script, ok := f.scripts[key]; ok && len(script) > 0 {
		n := f.seen[key]
		if n >= len(script) {
			n = len(script) - 1
		}
		r = script[n]
	}
	f.seen[key]++
	f.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}
	return &http.Response{
		StatusCode: r.status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(r.body)),
	}, nil
}

func (f *fakeClient) callsFor(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[key]
}

func (f *fakeClient) allCalls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

type fakeIDs struct{}

func (fakeIDs) NewID() (string, error) { return "batch-1", nil }

var fixedNow = time.Unix(1700000000, 0).UTC()

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.BaseURL = "https://spn.test"
	cfg.PassBackoffBase = time.Millisecond
	cfg.PassBackoffMax = 2 * time.Millisecond
	cfg.PollBackoffBase = time.Millisecond
	cfg.PollBackoffMax = 2 * time.Millisecond
	return cfg
}

func newTestArchiver(t *testing.T, cfg Config, client HTTPClient) *Archiver {
	t.Helper()
	a, err := New(cfg, client, system.Fixed(fixedNow), fakeIDs{}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func resultURLs(results []spn.Result) []string {
	urls := make([]string, 0, len(results))
	for _, r := range results {
		urls = append(urls, r.URL)
	}
	return urls
}
