// Package dispatcher manages the fixed-size worker pool shared by every
// submission pass of an Archiver.
package dispatcher

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/archivooor/archivooor/internal/spn"
	"github.com/archivooor/archivooor/internal/worker"
)

// Dispatcher fans out queued submissions to a pool of workers.
type Dispatcher struct {
	queue   spn.Queue
	workers []*worker.Worker
}

// New creates a Dispatcher.
func New(queue spn.Queue, workers []*worker.Worker) *Dispatcher {
	return &Dispatcher{
		queue:   queue,
		workers: workers,
	}
}

// NewPool builds a Dispatcher with size workers submitting through submitter.
func NewPool(size int, queue spn.Queue, submitter spn.Submitter, logger *zap.Logger) *Dispatcher {
	workers := make([]*worker.Worker, 0, size)
	for i := 0; i < size; i++ {
		workers = append(workers, worker.New(i, queue, submitter, logger))
	}
	return New(queue, workers)
}

// Size returns the number of workers in the pool.
func (d *Dispatcher) Size() int {
	return len(d.workers)
}

// Run starts all workers and blocks until every worker has returned.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, w := range d.workers {
		wg.Add(1)
		go func(wk *worker.Worker) {
			defer wg.Done()
			wk.Run(ctx)
		}(w)
	}
	wg.Wait()
}

// Enqueue proxies to the underlying queue.
func (d *Dispatcher) Enqueue(ctx context.Context, task spn.Task) error {
	if err := d.queue.Enqueue(ctx, task); err != nil {
		return fmt.Errorf("queue enqueue: %w", err)
	}
	return nil
}
