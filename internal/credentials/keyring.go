package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
	"go.uber.org/zap"

	"github.com/archivooor/archivooor/internal/spn"
)

// KeyringProvider reads the pair from the OS secret store.
type KeyringProvider struct {
	service string
}

// NewKeyringProvider reads entries under service.
func NewKeyringProvider(service string) *KeyringProvider {
	if service == "" {
		service = DefaultService
	}
	return &KeyringProvider{service: service}
}

// Name implements Provider.
func (k *KeyringProvider) Name() string { return "keyring:" + k.service }

// Fetch implements Provider.
func (k *KeyringProvider) Fetch(context.Context) (spn.Credential, bool, error) {
	access, err := keyring.Get(k.service, AccessKeyName)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return spn.Credential{}, false, nil
		}
		return spn.Credential{}, false, fmt.Errorf("keyring get %s: %w", AccessKeyName, err)
	}
	secret, err := keyring.Get(k.service, SecretKeyName)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return spn.Credential{}, false, nil
		}
		return spn.Credential{}, false, fmt.Errorf("keyring get %s: %w", SecretKeyName, err)
	}
	cred := spn.Credential{AccessKey: access, SecretKey: secret}
	return cred, cred.Complete(), nil
}

// Store writes and removes the pair in the OS secret store.
type Store struct {
	service string
	logger  *zap.Logger
}

// NewStore manages entries under service. logger may be nil.
func NewStore(service string, logger *zap.Logger) *Store {
	if service == "" {
		service = DefaultService
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{service: service, logger: logger}
}

// Set saves both keys.
func (s *Store) Set(cred spn.Credential) error {
	if !cred.Complete() {
		return fmt.Errorf("set credentials: access and secret key are both required")
	}
	if err := keyring.Set(s.service, AccessKeyName, cred.AccessKey); err != nil {
		return fmt.Errorf("keyring set %s: %w", AccessKeyName, err)
	}
	if err := keyring.Set(s.service, SecretKeyName, cred.SecretKey); err != nil {
		return fmt.Errorf("keyring set %s: %w", SecretKeyName, err)
	}
	s.logger.Debug("credentials stored", zap.String("service", s.service))
	return nil
}

// Delete removes both keys. Entries that are already absent are not an error.
func (s *Store) Delete() error {
	var errs []error
	for _, name := range []string{AccessKeyName, SecretKeyName} {
		if err := keyring.Delete(s.service, name); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			errs = append(errs, fmt.Errorf("keyring delete %s: %w", name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.logger.Debug("credentials deleted", zap.String("service", s.service))
	return nil
}
