package archiver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/archivooor/archivooor/internal/spn"
)

func TestNormalizeSubmissionSynthesizesSubmitted(t *testing.T) {
	t.Parallel()

	res, err := NormalizeSubmission("https://example.com", http.StatusOK, []byte(`{"job_id":"spn2-abc","url":"https://example.com"}`))
	require.NoError(t, err)
	require.Equal(t, "https://example.com", res.URL)
	require.Equal(t, "spn2-abc", res.JobID)
	require.Equal(t, spn.StatusSubmitted, res.Status)
	require.Zero(t, res.StatusCode)
	require.Equal(t, map[string]any{"job_id": "spn2-abc", "url": "https://example.com"}, res.RawResponse)
}

func TestNormalizeSubmissionKeepsReportedStatus(t *testing.T) {
	t.Parallel()

	res, err := NormalizeSubmission("https://example.com", http.StatusOK, []byte(`{"status":"success","job_id":"spn2-abc"}`))
	require.NoError(t, err)
	require.Equal(t, "success", res.Status)
	require.Equal(t, "spn2-abc", res.JobID)
}

func TestNormalizeSubmissionWithoutJobOrStatus(t *testing.T) {
	t.Parallel()

	res, err := NormalizeSubmission("https://example.com", http.StatusOK, []byte(`{"message":"You have already reached the limit"}`))
	require.NoError(t, err)
	require.Empty(t, res.Status)
	require.Empty(t, res.JobID)
	require.Equal(t, "You have already reached the limit", res.Message)
}

func TestNormalizeSubmissionHTTPError(t *testing.T) {
	t.Parallel()

	res, err := NormalizeSubmission("https://example.com", http.StatusServiceUnavailable, []byte("service unavailable"))
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	require.Empty(t, res.JobID)
	require.Empty(t, res.Status)
	require.Equal(t, "service unavailable", res.RawResponse)
	require.False(t, res.Accepted())
}

func TestNormalizeSubmissionUndecodableBody(t *testing.T) {
	t.Parallel()

	res, err := NormalizeSubmission("https://example.com", http.StatusOK, []byte("<html>busy</html>"))
	require.Error(t, err)
	require.Equal(t, "<html>busy</html>", res.RawResponse)
}

func TestNormalizeAccountVariants(t *testing.T) {
	t.Parallel()

	quota := NormalizeAccount(http.StatusOK, []byte(`{"available":4,"processing":1}`))
	require.Equal(t, spn.AccountQuota, quota.Kind)
	require.Equal(t, 4, quota.Available)
	require.Equal(t, 1, quota.Processing)

	limited := NormalizeAccount(http.StatusOK, []byte("<html><h1>429 Too Many Requests</h1></html>"))
	require.Equal(t, spn.AccountRateLimited, limited.Kind)
	require.Equal(t, http.StatusTooManyRequests, limited.StatusCode)
	require.Equal(t, spn.RateLimitedMessage, limited.Text)

	raw := NormalizeAccount(http.StatusOK, []byte("maintenance"))
	require.Equal(t, spn.AccountRawText, raw.Kind)
	require.Equal(t, "maintenance", raw.Text)

	failed := NormalizeAccount(http.StatusUnauthorized, []byte("bad keys"))
	require.Equal(t, spn.AccountHTTPError, failed.Kind)
	require.Equal(t, http.StatusUnauthorized, failed.StatusCode)
	require.Equal(t, "bad keys", failed.Text)
}

func TestNormalizeJob(t *testing.T) {
	t.Parallel()

	ok := NormalizeJob(http.StatusOK, []byte(`{"status":"pending"}`))
	require.Equal(t, "pending", ok.Status())

	raw := NormalizeJob(http.StatusNotFound, []byte("not found"))
	require.Nil(t, raw.Payload)
	require.Equal(t, http.StatusNotFound, raw.StatusCode)
	require.Equal(t, "not found", raw.Raw)
}
