// Package credentials resolves the archive.org key pair from an ordered list
// of sources (process environment, a .env file, the OS keyring) and manages
// the keyring entries.
package credentials

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/archivooor/archivooor/internal/spn"
)

// Entry names shared by every source.
const (
	AccessKeyName = "s3_access_key"
	SecretKeyName = "s3_secret_key"
)

// DefaultService is the keyring service the keys are stored under.
const DefaultService = "archivooor"

// Provider is one credential source.
// ok is false when the source holds no complete pair.
type Provider interface {
	Name() string
	Fetch(ctx context.Context) (cred spn.Credential, ok bool, err error)
}

// Chain tries providers in order and returns the first complete pair.
type Chain struct {
	providers []Provider
	logger    *zap.Logger
}

// NewChain builds a Chain. logger may be nil.
func NewChain(logger *zap.Logger, providers ...Provider) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{providers: providers, logger: logger}
}

// Resolve returns the first complete credential pair. A failing source is
// logged and skipped; spn.ErrNoCredentials is returned when nothing matched.
func (c *Chain) Resolve(ctx context.Context) (spn.Credential, error) {
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return spn.Credential{}, fmt.Errorf("resolve credentials: %w", err)
		}
		cred, ok, err := p.Fetch(ctx)
		if err != nil {
			c.logger.Warn("credential source failed", zap.String("source", p.Name()), zap.Error(err))
			continue
		}
		if ok && cred.Complete() {
			c.logger.Debug("credentials resolved", zap.String("source", p.Name()))
			return cred, nil
		}
	}
	return spn.Credential{}, spn.ErrNoCredentials
}

// StaticProvider returns a fixed pair, such as the one set in the config file.
type StaticProvider struct {
	Label string
	Cred  spn.Credential
}

// Name implements Provider.
func (s StaticProvider) Name() string {
	if s.Label == "" {
		return "static"
	}
	return s.Label
}

// Fetch implements Provider.
func (s StaticProvider) Fetch(context.Context) (spn.Credential, bool, error) {
	return s.Cred, s.Cred.Complete(), nil
}
