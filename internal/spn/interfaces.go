package spn

import (
	"context"
	"time"
)

// Submitter performs a single submission attempt for one URL.
// It returns an error only when no usable response was obtained.
type Submitter interface {
	SavePage(ctx context.Context, target string, opts Options) (Result, error)
}

// Queue provides enqueue/dequeue semantics for submission tasks.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	Dequeue(ctx context.Context) (Task, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces batch identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// Task is one submission attempt waiting in the worker pool.
// Context, when set, scopes the attempt to the caller that queued it.
type Task struct {
	Context context.Context
	URL     string
	Options Options
	Attempt int
	BatchID string
	Reply   chan<- Outcome
}

// Outcome is what a worker reports back for a Task.
type Outcome struct {
	Task   Task
	Result Result
	Err    error
}
