// Package config loads and validates archivooor configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/archivooor/archivooor/internal/archiver"
	"github.com/archivooor/archivooor/internal/credentials"
	"github.com/archivooor/archivooor/internal/policy/ratelimit"
	"github.com/archivooor/archivooor/internal/spn"
	"github.com/archivooor/archivooor/internal/transport"
)

// EnvPrefix is prepended to every environment override, e.g. ARCHIVOOOR_PIPELINE_WORKERS.
const EnvPrefix = "ARCHIVOOOR"

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	API         APIConfig         `mapstructure:"api"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Pipeline    PipelineConfig    `mapstructure:"pipeline"`
	Status      StatusConfig      `mapstructure:"status"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// APIConfig points at the Save Page Now service.
type APIConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	UserAgent string `mapstructure:"user_agent"`
}

// HTTPConfig configures HTTP client retry and pacing behavior.
type HTTPConfig struct {
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	MaxRetries     int     `mapstructure:"max_retries"`
	BackoffBaseMs  int     `mapstructure:"backoff_base_ms"`
	BackoffMaxMs   int     `mapstructure:"backoff_max_ms"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// PipelineConfig governs the submission worker pool and retry passes.
type PipelineConfig struct {
	Workers           int `mapstructure:"workers"`
	QueueDepth        int `mapstructure:"queue_depth"`
	MaxPasses         int `mapstructure:"max_passes"`
	PassBackoffBaseMs int `mapstructure:"pass_backoff_base_ms"`
	PassBackoffMaxMs  int `mapstructure:"pass_backoff_max_ms"`
}

// StatusConfig bounds job status polling.
type StatusConfig struct {
	MaxPolls          int `mapstructure:"max_polls"`
	PollBackoffBaseMs int `mapstructure:"poll_backoff_base_ms"`
	PollBackoffMaxMs  int `mapstructure:"poll_backoff_max_ms"`
}

// CredentialsConfig locates the key pair sources. AccessKey and SecretKey
// are only consulted after the environment and the dotenv file.
type CredentialsConfig struct {
	DotenvPath     string `mapstructure:"dotenv_path"`
	KeyringService string `mapstructure:"keyring_service"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", archiver.DefaultBaseURL)
	v.SetDefault("api.user_agent", "archivooor")
	v.SetDefault("http.timeout_seconds", 60)
	v.SetDefault("http.max_retries", 5)
	v.SetDefault("http.backoff_base_ms", 100)
	v.SetDefault("http.backoff_max_ms", 5000)
	v.SetDefault("http.rate_limit_rps", 0)
	v.SetDefault("http.rate_limit_burst", 1)
	v.SetDefault("pipeline.workers", 5)
	v.SetDefault("pipeline.queue_depth", 64)
	v.SetDefault("pipeline.max_passes", 5)
	v.SetDefault("pipeline.pass_backoff_base_ms", 1000)
	v.SetDefault("pipeline.pass_backoff_max_ms", 30000)
	v.SetDefault("status.max_polls", 10)
	v.SetDefault("status.poll_backoff_base_ms", 500)
	v.SetDefault("status.poll_backoff_max_ms", 10000)
	v.SetDefault("credentials.dotenv_path", ".env")
	v.SetDefault("credentials.keyring_service", credentials.DefaultService)
	v.SetDefault("credentials.access_key", "")
	v.SetDefault("credentials.secret_key", "")
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url must be set")
	}
	if c.HTTP.TimeoutSeconds < 0 {
		return fmt.Errorf("http.timeout_seconds must be >= 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.HTTP.BackoffBaseMs < 0 || c.HTTP.BackoffMaxMs < c.HTTP.BackoffBaseMs {
		return fmt.Errorf("http.backoff_max_ms must be >= http.backoff_base_ms >= 0")
	}
	if c.HTTP.RateLimitRPS < 0 {
		return fmt.Errorf("http.rate_limit_rps must be >= 0")
	}
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline.workers must be > 0")
	}
	if c.Pipeline.QueueDepth < 0 {
		return fmt.Errorf("pipeline.queue_depth must be >= 0")
	}
	if c.Pipeline.MaxPasses <= 0 {
		return fmt.Errorf("pipeline.max_passes must be > 0")
	}
	if c.Status.MaxPolls <= 0 {
		return fmt.Errorf("status.max_polls must be > 0")
	}
	if strings.TrimSpace(c.Credentials.KeyringService) == "" {
		return fmt.Errorf("credentials.keyring_service must be set")
	}
	if (c.Credentials.AccessKey == "") != (c.Credentials.SecretKey == "") {
		return fmt.Errorf("credentials.access_key and credentials.secret_key must be set together")
	}
	return nil
}

// Transport converts the HTTP section into transport settings.
func (c Config) Transport() transport.Config {
	return transport.Config{
		UserAgent:   c.API.UserAgent,
		Timeout:     time.Duration(c.HTTP.TimeoutSeconds) * time.Second,
		MaxRetries:  c.HTTP.MaxRetries,
		BackoffBase: ms(c.HTTP.BackoffBaseMs),
		BackoffMax:  ms(c.HTTP.BackoffMaxMs),
	}
}

// RateLimit converts the HTTP pacing knobs into limiter settings.
func (c Config) RateLimit() ratelimit.Config {
	return ratelimit.Config{RPS: c.HTTP.RateLimitRPS, Burst: c.HTTP.RateLimitBurst}
}

// Credential returns the key pair set in configuration, which may be empty.
func (c Config) Credential() spn.Credential {
	return spn.Credential{AccessKey: c.Credentials.AccessKey, SecretKey: c.Credentials.SecretKey}
}

// Archiver converts the pipeline and status sections into archiver settings.
func (c Config) Archiver() archiver.Config {
	return archiver.Config{
		BaseURL:         strings.TrimRight(c.API.BaseURL, "/"),
		Workers:         c.Pipeline.Workers,
		QueueDepth:      c.Pipeline.QueueDepth,
		MaxPasses:       c.Pipeline.MaxPasses,
		PassBackoffBase: ms(c.Pipeline.PassBackoffBaseMs),
		PassBackoffMax:  ms(c.Pipeline.PassBackoffMaxMs),
		MaxStatusPolls:  c.Status.MaxPolls,
		PollBackoffBase: ms(c.Status.PollBackoffBaseMs),
		PollBackoffMax:  ms(c.Status.PollBackoffMaxMs),
	}
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
