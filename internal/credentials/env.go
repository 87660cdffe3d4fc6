package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/archivooor/archivooor/internal/spn"
)

// EnvProvider reads the pair from process environment variables.
type EnvProvider struct {
	lookup func(string) (string, bool)
}

// NewEnvProvider reads from os.LookupEnv.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{lookup: os.LookupEnv}
}

// Name implements Provider.
func (*EnvProvider) Name() string { return "env" }

// Fetch implements Provider.
func (e *EnvProvider) Fetch(context.Context) (spn.Credential, bool, error) {
	access, _ := e.lookup(AccessKeyName)
	secret, _ := e.lookup(SecretKeyName)
	cred := spn.Credential{AccessKey: access, SecretKey: secret}
	return cred, cred.Complete(), nil
}

// DotenvProvider reads the pair from a dotenv file without touching the
// process environment. A missing file is not an error.
type DotenvProvider struct {
	path string
}

// NewDotenvProvider reads from path.
func NewDotenvProvider(path string) *DotenvProvider {
	return &DotenvProvider{path: path}
}

// Name implements Provider.
func (d *DotenvProvider) Name() string { return "dotenv:" + d.path }

// Fetch implements Provider.
func (d *DotenvProvider) Fetch(context.Context) (spn.Credential, bool, error) {
	if d.path == "" {
		return spn.Credential{}, false, nil
	}
	values, err := godotenv.Read(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return spn.Credential{}, false, nil
		}
		return spn.Credential{}, false, fmt.Errorf("read %s: %w", d.path, err)
	}
	cred := spn.Credential{AccessKey: values[AccessKeyName], SecretKey: values[SecretKeyName]}
	return cred, cred.Complete(), nil
}
