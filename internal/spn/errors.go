package spn

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the client.
var (
	ErrNoCredentials = errors.New("no archive.org credentials configured")
	ErrUnresolved    = errors.New("unresolved")
	ErrEmptyJobID    = errors.New("job id must not be empty")
	ErrQueueClosed   = errors.New("queue closed")
)

// UnresolvedError reports a URL or job that never settled within its retry budget.
type UnresolvedError struct {
	Subject  string
	Attempts int
	Last     error
}

func (e *UnresolvedError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("%s unresolved after %d attempts", e.Subject, e.Attempts)
	}
	return fmt.Sprintf("%s unresolved after %d attempts: %v", e.Subject, e.Attempts, e.Last)
}

// Unwrap exposes both ErrUnresolved and the last underlying failure.
func (e *UnresolvedError) Unwrap() []error {
	if e.Last == nil {
		return []error{ErrUnresolved}
	}
	return []error{ErrUnresolved, e.Last}
}
