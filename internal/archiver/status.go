package archiver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/archivooor/archivooor/internal/metrics"
	"github.com/archivooor/archivooor/internal/spn"
)

// GetStatus fetches the status of a submitted job.
//
// The service reports "error" for jobs it has not finished recovering; those
// are polled again, up to Config.MaxStatusPolls times. When the budget runs
// out the last payload is returned together with an error wrapping
// spn.ErrUnresolved. Non-200 responses are returned as raw text, not errors.
func (a *Archiver) GetStatus(ctx context.Context, jobID string) (spn.JobStatus, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return spn.JobStatus{}, spn.ErrEmptyJobID
	}
	logger := a.logger.With(zap.String("job_id", jobID))

	for attempt := 1; ; attempt++ {
		status, err := a.fetchStatus(ctx, jobID)
		if err != nil {
			return spn.JobStatus{}, err
		}
		metrics.ObserveStatusPoll(status.Status())
		if status.Payload == nil || status.Status() != spn.StatusError {
			return status, nil
		}

		if !a.pollPolicy.ShouldRetry(attempt) {
			return status, &spn.UnresolvedError{
				Subject:  "job " + jobID,
				Attempts: attempt,
				Last:     jobError(status),
			}
		}
		wait := a.pollPolicy.Backoff(attempt)
		logger.Debug("job reported error, polling again", zap.Int("attempt", attempt), zap.Duration("backoff", wait))
		if err := sleep(ctx, wait); err != nil {
			return status, fmt.Errorf("get job status: %w", err)
		}
	}
}

func (a *Archiver) fetchStatus(ctx context.Context, jobID string) (spn.JobStatus, error) {
	endpoint := fmt.Sprintf("%s/save/status/%s?_t=%d", a.cfg.BaseURL, url.PathEscape(jobID), a.clock.Now().Unix())
	resp, err := a.client.Get(ctx, endpoint)
	if err != nil {
		return spn.JobStatus{}, fmt.Errorf("get job status: %w", err)
	}
	body, err := readBody(resp)
	if err != nil {
		return spn.JobStatus{}, fmt.Errorf("get job status: %w", err)
	}
	return NormalizeJob(resp.StatusCode, body), nil
}

func jobError(status spn.JobStatus) error {
	msg := stringValue(status.Payload["message"])
	if msg == "" {
		return nil
	}
	return errors.New(msg)
}
