package archiver

import (
	"fmt"
	"strings"
	"time"
)

// DefaultBaseURL is the public Wayback Machine endpoint.
const DefaultBaseURL = "https://web.archive.org"

// Config controls the pipeline and poller.
type Config struct {
	BaseURL         string
	Workers         int
	QueueDepth      int
	MaxPasses       int
	PassBackoffBase time.Duration
	PassBackoffMax  time.Duration
	MaxStatusPolls  int
	PollBackoffBase time.Duration
	PollBackoffMax  time.Duration
}

// DefaultConfig returns the settings used by the CLI.
func DefaultConfig() Config {
	return Config{
		BaseURL:         DefaultBaseURL,
		Workers:         5,
		QueueDepth:      64,
		MaxPasses:       5,
		PassBackoffBase: time.Second,
		PassBackoffMax:  30 * time.Second,
		MaxStatusPolls:  10,
		PollBackoffBase: 500 * time.Millisecond,
		PollBackoffMax:  10 * time.Second,
	}
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("base url must be set")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be > 0")
	}
	if c.QueueDepth < 0 {
		return fmt.Errorf("queue depth must be >= 0")
	}
	if c.MaxPasses <= 0 {
		return fmt.Errorf("max passes must be > 0")
	}
	if c.MaxStatusPolls <= 0 {
		return fmt.Errorf("max status polls must be > 0")
	}
	return nil
}
