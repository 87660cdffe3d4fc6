package archiver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/archivooor/archivooor/internal/clock/system"
	"github.com/archivooor/archivooor/internal/dispatcher"
	"github.com/archivooor/archivooor/internal/queue/memory"
	"github.com/archivooor/archivooor/internal/spn"
)

// HTTPClient is the transport the Archiver issues requests through.
// Implementations retry transient failures themselves.
type HTTPClient interface {
	Get(ctx context.Context, rawURL string) (*http.Response, error)
	PostForm(ctx context.Context, rawURL string, form url.Values) (*http.Response, error)
}

// Archiver submits pages to Save Page Now and queries job and account status.
// One long-lived worker pool serves every SavePages call and retry pass.
type Archiver struct {
	cfg        Config
	client     HTTPClient
	clock      spn.Clock
	ids        spn.IDGenerator
	logger     *zap.Logger
	queue      *memory.Queue
	pool       *dispatcher.Dispatcher
	passPolicy retryPolicy
	pollPolicy retryPolicy

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// New builds an Archiver and starts its worker pool. clock, ids, and logger
// may be nil. Callers must Close the Archiver when done.
func New(
	cfg Config,
	client HTTPClient,
	clock spn.Clock,
	ids spn.IDGenerator,
	logger *zap.Logger,
) (*Archiver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("archiver config: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("archiver config: http client is required")
	}
	if clock == nil {
		clock = system.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	a := &Archiver{
		cfg:        cfg,
		client:     client,
		clock:      clock,
		ids:        ids,
		logger:     logger,
		queue:      memory.NewQueue(cfg.QueueDepth),
		passPolicy: newRetryPolicy(cfg.MaxPasses, cfg.PassBackoffBase, cfg.PassBackoffMax),
		pollPolicy: newRetryPolicy(cfg.MaxStatusPolls, cfg.PollBackoffBase, cfg.PollBackoffMax),
		done:       make(chan struct{}),
	}
	a.pool = dispatcher.NewPool(cfg.Workers, a.queue, a, logger)

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	go func() {
		defer close(a.done)
		a.pool.Run(ctx)
	}()
	return a, nil
}

// Close stops the worker pool and waits for it to exit.
// It must not be called while SavePages is running.
func (a *Archiver) Close() {
	a.closeOnce.Do(func() {
		a.queue.Close()
		a.cancel()
		<-a.done
	})
}

// SavePage performs one submission attempt for target.
func (a *Archiver) SavePage(ctx context.Context, target string, opts spn.Options) (spn.Result, error) {
	endpoint := a.cfg.BaseURL + "/save/" + target
	resp, err := a.client.PostForm(ctx, endpoint, opts.Form(target))
	if err != nil {
		return spn.Result{URL: target}, fmt.Errorf("submit %s: %w", target, err)
	}
	body, err := readBody(resp)
	if err != nil {
		return spn.Result{URL: target}, fmt.Errorf("submit %s: %w", target, err)
	}
	return NormalizeSubmission(target, resp.StatusCode, body)
}

// GetAccountStatus returns the account's active and available capture sessions.
func (a *Archiver) GetAccountStatus(ctx context.Context) (spn.AccountStatus, error) {
	endpoint := fmt.Sprintf("%s/save/status/user?_t=%d", a.cfg.BaseURL, a.clock.Now().Unix())
	resp, err := a.client.Get(ctx, endpoint)
	if err != nil {
		return spn.AccountStatus{}, fmt.Errorf("get account status: %w", err)
	}
	body, err := readBody(resp)
	if err != nil {
		return spn.AccountStatus{}, fmt.Errorf("get account status: %w", err)
	}
	status := NormalizeAccount(resp.StatusCode, body)
	a.logger.Debug("account status fetched", zap.String("kind", string(status.Kind)), zap.Int("status_code", status.StatusCode))
	return status, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}
