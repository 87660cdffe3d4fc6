// Package worker implements the submission loop run by each pool goroutine.
package worker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/archivooor/archivooor/internal/metrics"
	"github.com/archivooor/archivooor/internal/spn"
)

// Worker consumes submission tasks and reports one Outcome per task.
type Worker struct {
	id        int
	queue     spn.Queue
	submitter spn.Submitter
	logger    *zap.Logger
}

// New constructs a Worker.
func New(id int, queue spn.Queue, submitter spn.Submitter, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		id:        id,
		queue:     queue,
		submitter: submitter,
		logger:    logger.With(zap.Int("worker", id)),
	}
}

// Run blocks, consuming queue items until the context finishes or the queue closes.
func (w *Worker) Run(ctx context.Context) {
	for {
		task, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, spn.ErrQueueClosed) {
				return
			}
			w.logger.Error("queue dequeue failed", zap.Error(err))
			continue
		}
		w.process(ctx, task)
	}
}

func (w *Worker) process(ctx context.Context, task spn.Task) {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	logger := w.logger.With(
		zap.String("batch_id", task.BatchID),
		zap.String("url", task.URL),
		zap.Int("attempt", task.Attempt),
	)
	logger.Debug("submitting url")

	if task.Context != nil {
		ctx = task.Context
	}
	result, err := w.submit(ctx, task)
	if err != nil {
		logger.Warn("submission attempt failed", zap.Error(err))
	} else {
		logger.Debug("submission settled", zap.String("job_id", result.JobID), zap.Int("status_code", result.StatusCode))
	}
	task.Reply <- spn.Outcome{Task: task, Result: result, Err: err}
}

// submit converts a panic in the submitter into an ordinary failure so the
// URL is retried instead of taking down the pool.
func (w *Worker) submit(ctx context.Context, task spn.Task) (result spn.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("submit %s: panic: %v", task.URL, r)
		}
	}()
	return w.submitter.SavePage(ctx, task.URL, task.Options)
}
