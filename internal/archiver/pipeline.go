package archiver

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/archivooor/archivooor/internal/metrics"
	"github.com/archivooor/archivooor/internal/spn"
)

type failure struct {
	url string
	err error
}

// SavePages submits every URL through the worker pool and returns one result
// per input URL, in completion order.
//
// URLs whose attempt fails without a response are resubmitted as a group once
// the whole pass has settled, up to Config.MaxPasses passes with backoff in
// between. URLs that never settle get a result whose Err wraps
// spn.ErrUnresolved. HTTP error responses are results, not failures, and are
// not resubmitted. Duplicate URLs are submitted independently.
func (a *Archiver) SavePages(ctx context.Context, urls []string, opts spn.Options) ([]spn.Result, error) {
	if len(urls) == 0 {
		return nil, nil
	}
	batchID := a.newBatchID()
	logger := a.logger.With(zap.String("batch_id", batchID))
	logger.Info("submitting batch", zap.Int("urls", len(urls)), zap.Int("workers", a.pool.Size()))

	results := make([]spn.Result, 0, len(urls))
	pending := append([]string(nil), urls...)
	for attempt := 1; ; attempt++ {
		settled, failures, err := a.runPass(ctx, batchID, pending, opts, attempt)
		results = append(results, settled...)
		if err != nil {
			return results, err
		}
		if len(failures) == 0 {
			break
		}

		if !a.passPolicy.ShouldRetry(attempt) {
			for _, f := range failures {
				metrics.ObserveSubmission(metrics.OutcomeUnresolved)
				results = append(results, spn.Result{
					URL:      f.url,
					Attempts: attempt,
					Err:      &spn.UnresolvedError{Subject: f.url, Attempts: attempt, Last: f.err},
				})
			}
			logger.Warn("giving up on unresolved urls", zap.Int("count", len(failures)), zap.Int("attempts", attempt))
			break
		}

		wait := a.passPolicy.Backoff(attempt)
		metrics.ObserveRetryPass()
		logger.Info("resubmitting failed urls",
			zap.Int("count", len(failures)),
			zap.Int("next_attempt", attempt+1),
			zap.Duration("backoff", wait),
		)
		if err := sleep(ctx, wait); err != nil {
			return results, fmt.Errorf("save pages: %w", err)
		}
		pending = pending[:0]
		for _, f := range failures {
			pending = append(pending, f.url)
		}
	}
	logger.Info("batch settled", zap.Int("results", len(results)))
	return results, nil
}

// runPass queues one attempt per URL and waits for all of them to report.
func (a *Archiver) runPass(
	ctx context.Context,
	batchID string,
	urls []string,
	opts spn.Options,
	attempt int,
) ([]spn.Result, []failure, error) {
	// Buffered to the pass size so workers never block on an abandoned pass.
	replies := make(chan spn.Outcome, len(urls))
	for _, u := range urls {
		task := spn.Task{
			Context: ctx,
			URL:     u,
			Options: opts,
			Attempt: attempt,
			BatchID: batchID,
			Reply:   replies,
		}
		if err := a.pool.Enqueue(ctx, task); err != nil {
			return nil, nil, fmt.Errorf("save pages: %w", err)
		}
	}

	settled := make([]spn.Result, 0, len(urls))
	var failures []failure
	for range urls {
		select {
		case <-ctx.Done():
			return settled, failures, fmt.Errorf("save pages: %w", ctx.Err())
		case out := <-replies:
			if out.Err != nil {
				metrics.ObserveSubmission(metrics.OutcomeFailed)
				failures = append(failures, failure{url: out.Task.URL, err: out.Err})
				continue
			}
			result := out.Result
			result.Attempts = out.Task.Attempt
			if result.StatusCode != 0 {
				metrics.ObserveSubmission(metrics.OutcomeHTTPError)
			} else {
				metrics.ObserveSubmission(metrics.OutcomeAccepted)
			}
			settled = append(settled, result)
		}
	}
	return settled, failures, nil
}

func (a *Archiver) newBatchID() string {
	if a.ids == nil {
		return ""
	}
	id, err := a.ids.NewID()
	if err != nil {
		a.logger.Warn("batch id generation failed", zap.Error(err))
		return ""
	}
	return id
}
