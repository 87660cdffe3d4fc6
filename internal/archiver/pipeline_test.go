package archiver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/archivooor/archivooor/internal/spn"
)

func TestSavePagesOneResultPerURL(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	a := newTestArchiver(t, testConfig(), client)

	urls := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		u := fmt.Sprintf("https://example.com/%d", i)
		urls = append(urls, u)
		client.script(u, reply{status: http.StatusOK, body: fmt.Sprintf(`{"job_id":"spn2-%d"}`, i)})
	}

	results, err := a.SavePages(context.Background(), urls, spn.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, len(urls))
	require.ElementsMatch(t, urls, resultURLs(results))
	for _, r := range results {
		require.Equal(t, spn.StatusSubmitted, r.Status)
		require.Equal(t, 1, r.Attempts)
		require.NoError(t, r.Err)
	}
}

func TestSavePagesPostsFormToSaveEndpoint(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	a := newTestArchiver(t, testConfig(), client)

	opts := spn.Options{CaptureAll: true, CaptureOutlinks: true, EmailResult: true}
	_, err := a.SavePages(context.Background(), []string{"https://example.com/page?q=1"}, opts)
	require.NoError(t, err)

	calls := client.allCalls()
	require.Len(t, calls, 1)
	require.Equal(t, http.MethodPost, calls[0].method)
	require.Equal(t, "https://spn.test/save/https://example.com/page?q=1", calls[0].url)
	require.Equal(t, opts.Form("https://example.com/page?q=1"), calls[0].form)
}

func TestSavePagesRetriesFailedURLOnce(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.script("https://flaky.example",
		reply{err: errConnReset},
		reply{status: http.StatusOK, body: `{"job_id":"spn2-flaky"}`},
	)
	a := newTestArchiver(t, testConfig(), client)

	urls := []string{"https://a.example", "https://flaky.example", "https://b.example"}
	results, err := a.SavePages(context.Background(), urls, spn.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.ElementsMatch(t, urls, resultURLs(results))

	// The retried URL settles in the second pass, after every first-pass result.
	last := results[len(results)-1]
	require.Equal(t, "https://flaky.example", last.URL)
	require.Equal(t, "spn2-flaky", last.JobID)
	require.Equal(t, 2, last.Attempts)
	require.Equal(t, 2, client.callsFor("https://flaky.example"))
	require.Equal(t, 1, client.callsFor("https://a.example"))
}

func TestSavePagesRetriesUndecodableSuccess(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.script("https://odd.example",
		reply{status: http.StatusOK, body: "<html>rate limited</html>"},
		reply{status: http.StatusOK, body: `{"job_id":"spn2-odd","status":"pending"}`},
	)
	a := newTestArchiver(t, testConfig(), client)

	results, err := a.SavePages(context.Background(), []string{"https://odd.example"}, spn.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "pending", results[0].Status)
	require.Equal(t, 2, results[0].Attempts)
}

func TestSavePagesDoesNotRetryHTTPErrors(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.script("https://down.example", reply{status: http.StatusServiceUnavailable, body: "unavailable"})
	a := newTestArchiver(t, testConfig(), client)

	results, err := a.SavePages(context.Background(), []string{"https://down.example"}, spn.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, http.StatusServiceUnavailable, results[0].StatusCode)
	require.Empty(t, results[0].JobID)
	require.Equal(t, "unavailable", results[0].RawResponse)
	require.Equal(t, 1, client.callsFor("https://down.example"))
}

func TestSavePagesGivesUpAfterMaxPasses(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxPasses = 3
	client := newFakeClient()
	client.script("https://dead.example", reply{err: errConnReset})
	a := newTestArchiver(t, cfg, client)

	results, err := a.SavePages(context.Background(), []string{"https://ok.example", "https://dead.example"}, spn.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, 2)

	dead := results[1]
	require.Equal(t, "https://dead.example", dead.URL)
	require.ErrorIs(t, dead.Err, spn.ErrUnresolved)
	require.ErrorIs(t, dead.Err, errConnReset)
	require.Equal(t, 3, dead.Attempts)
	require.Equal(t, 3, client.callsFor("https://dead.example"))

	var unresolved *spn.UnresolvedError
	require.True(t, errors.As(dead.Err, &unresolved))
	require.Equal(t, "https://dead.example", unresolved.Subject)
}

func TestSavePagesKeepsDuplicates(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	a := newTestArchiver(t, testConfig(), client)

	urls := []string{"https://dup.example", "https://dup.example"}
	results, err := a.SavePages(context.Background(), urls, spn.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, urls, resultURLs(results))
	require.Equal(t, 2, client.callsFor("https://dup.example"))
}

func TestSavePagesEmptyBatch(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	a := newTestArchiver(t, testConfig(), client)

	results, err := a.SavePages(context.Background(), nil, spn.DefaultOptions())
	require.NoError(t, err)
	require.Empty(t, results)
	require.Empty(t, client.allCalls())
}

func TestSavePagesCanceledContext(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	a := newTestArchiver(t, testConfig(), client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.SavePages(ctx, []string{"https://example.com"}, spn.DefaultOptions())
	require.ErrorIs(t, err, context.Canceled)
}

func TestSavePagesSharesPoolAcrossCalls(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	a := newTestArchiver(t, testConfig(), client)

	for i := 0; i < 3; i++ {
		results, err := a.SavePages(context.Background(), []string{fmt.Sprintf("https://example.com/%d", i)}, spn.DefaultOptions())
		require.NoError(t, err)
		require.Len(t, results, 1)
	}
	require.Equal(t, 5, a.pool.Size())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Workers = 0
	_, err := New(cfg, newFakeClient(), nil, nil, nil)
	require.ErrorContains(t, err, "workers must be > 0")

	_, err = New(testConfig(), nil, nil, nil, nil)
	require.ErrorContains(t, err, "http client is required")
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	a, err := New(testConfig(), newFakeClient(), nil, nil, nil)
	require.NoError(t, err)
	a.Close()
	a.Close()

	_, err = a.SavePages(context.Background(), []string{"https://example.com"}, spn.DefaultOptions())
	require.ErrorIs(t, err, spn.ErrQueueClosed)
}
