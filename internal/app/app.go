// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/archivooor/archivooor/internal/archiver"
	"github.com/archivooor/archivooor/internal/clock/system"
	"github.com/archivooor/archivooor/internal/config"
	"github.com/archivooor/archivooor/internal/credentials"
	"github.com/archivooor/archivooor/internal/id/uuid"
	"github.com/archivooor/archivooor/internal/logging"
	"github.com/archivooor/archivooor/internal/metrics"
	"github.com/archivooor/archivooor/internal/policy/ratelimit"
	"github.com/archivooor/archivooor/internal/sitemap"
	"github.com/archivooor/archivooor/internal/spn"
	"github.com/archivooor/archivooor/internal/transport"
)

// Service is the archive surface the commands drive.
type Service interface {
	SavePages(ctx context.Context, urls []string, opts spn.Options) ([]spn.Result, error)
	GetStatus(ctx context.Context, jobID string) (spn.JobStatus, error)
	GetAccountStatus(ctx context.Context) (spn.AccountStatus, error)
}

// KeyStore persists the credential pair.
type KeyStore interface {
	Set(cred spn.Credential) error
	Delete() error
}

// Options carries command-line overrides applied on top of the loaded config.
type Options struct {
	ConfigPath      string
	Debug           bool
	MetricsTextfile string
}

// App holds the shared, long-lived services for one CLI invocation.
// Network-facing services are built lazily so commands that never touch the
// archive (keys, version) do not need credentials.
type App struct {
	cfg         config.Config
	logger      *zap.Logger
	chain       *credentials.Chain
	keys        *credentials.Store
	metricsPath string

	mu       sync.Mutex
	client   *transport.Client
	archiver *archiver.Archiver
	sitemaps *transport.PlainClient
}

// New loads configuration, builds the logger, and wires the credential sources.
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Debug {
		cfg.Logging.Development = true
	}
	logger, err := logging.New(logging.Options{Development: cfg.Logging.Development, Level: cfg.Logging.Level})
	if err != nil {
		return nil, err
	}
	metrics.Init()

	chain := credentials.NewChain(logger,
		credentials.NewEnvProvider(),
		credentials.NewDotenvProvider(cfg.Credentials.DotenvPath),
		credentials.StaticProvider{Label: "config", Cred: cfg.Credential()},
		credentials.NewKeyringProvider(cfg.Credentials.KeyringService),
	)
	return &App{
		cfg:         cfg,
		logger:      logger,
		chain:       chain,
		keys:        credentials.NewStore(cfg.Credentials.KeyringService, logger),
		metricsPath: opts.MetricsTextfile,
	}, nil
}

// GetLogger returns the shared zap logger.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetConfig returns the resolved configuration.
func (a *App) GetConfig() config.Config {
	return a.cfg
}

// Keys returns the keyring-backed credential store.
func (a *App) Keys() KeyStore {
	return a.keys
}

// Archiver resolves credentials and returns the shared archive service.
// spn.ErrNoCredentials is returned before any request is made when no source
// holds a complete key pair.
func (a *App) Archiver(ctx context.Context) (Service, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.archiver != nil {
		return a.archiver, nil
	}

	cred, err := a.chain.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	client := transport.New(a.cfg.Transport(), cred, ratelimit.New(a.cfg.RateLimit()), a.logger)
	arch, err := archiver.New(a.cfg.Archiver(), client, system.New(), uuid.NewUUIDGenerator(), a.logger)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("init archiver: %w", err)
	}
	a.client = client
	a.archiver = arch
	return arch, nil
}

// SitemapURLs loads a sitemap and returns its page URLs.
func (a *App) SitemapURLs(ctx context.Context, location string) ([]string, error) {
	return sitemap.URLs(ctx, location, a.sitemapClient())
}

func (a *App) sitemapClient() *transport.PlainClient {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sitemaps == nil {
		a.sitemaps = transport.NewPlainClient(a.cfg.Transport(), a.logger)
	}
	return a.sitemaps
}

// Close stops the worker pool, writes the metrics textfile if requested, and
// flushes the logger.
func (a *App) Close() {
	a.mu.Lock()
	if a.archiver != nil {
		a.archiver.Close()
		a.client.Close()
		a.archiver, a.client = nil, nil
	}
	if a.sitemaps != nil {
		a.sitemaps.Close()
		a.sitemaps = nil
	}
	a.mu.Unlock()

	if a.metricsPath != "" {
		if err := metrics.WriteTextfile(a.metricsPath); err != nil {
			a.logger.Warn("failed to write metrics textfile", zap.String("path", a.metricsPath), zap.Error(err))
		}
	}
	_ = a.logger.Sync() //nolint:errcheck // stderr sync fails on some terminals
}
