package archiver

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/archivooor/archivooor/internal/spn"
)

const statusKey = "https://spn.test/save/status/spn2-abc"

func TestGetStatusReturnsPayloadUnchanged(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.script(statusKey, reply{
		status: http.StatusOK,
		body:   `{"status":"success","original_url":"https://example.com","outlinks":["a","b"]}`,
	})
	a := newTestArchiver(t, testConfig(), client)

	status, err := a.GetStatus(context.Background(), "spn2-abc")
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"status":       "success",
		"original_url": "https://example.com",
		"outlinks":     []any{"a", "b"},
	}, status.Payload)
	require.Equal(t, 2, status.OutlinksSaved())

	again, err := a.GetStatus(context.Background(), "spn2-abc")
	require.NoError(t, err)
	require.Equal(t, status, again)
}

func TestGetStatusSendsCacheBustingTimestamp(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.script(statusKey, reply{status: http.StatusOK, body: `{"status":"pending"}`})
	a := newTestArchiver(t, testConfig(), client)

	_, err := a.GetStatus(context.Background(), "spn2-abc")
	require.NoError(t, err)

	calls := client.allCalls()
	require.Len(t, calls, 1)
	require.Equal(t, http.MethodGet, calls[0].method)
	require.Equal(t, "https://spn.test/save/status/spn2-abc?_t=1700000000", calls[0].url)
}

func TestGetStatusRequeriesOnError(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.script(statusKey,
		reply{status: http.StatusOK, body: `{"status":"error","message":"try again"}`},
		reply{status: http.StatusOK, body: `{"status":"error"}`},
		reply{status: http.StatusOK, body: `{"status":"success","original_url":"https://example.com"}`},
	)
	a := newTestArchiver(t, testConfig(), client)

	status, err := a.GetStatus(context.Background(), "spn2-abc")
	require.NoError(t, err)
	require.Equal(t, "success", status.Status())
	require.Equal(t, 3, client.callsFor(statusKey))
}

func TestGetStatusGivesUpAfterMaxPolls(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxStatusPolls = 4
	client := newFakeClient()
	client.script(statusKey, reply{status: http.StatusOK, body: `{"status":"error","message":"capture failed"}`})
	a := newTestArchiver(t, cfg, client)

	status, err := a.GetStatus(context.Background(), "spn2-abc")
	require.ErrorIs(t, err, spn.ErrUnresolved)
	require.ErrorContains(t, err, "capture failed")
	require.Equal(t, spn.StatusError, status.Status())
	require.Equal(t, 4, client.callsFor(statusKey))
}

func TestGetStatusNon200ReturnsRawText(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.script(statusKey, reply{status: http.StatusNotFound, body: "no such job"})
	a := newTestArchiver(t, testConfig(), client)

	status, err := a.GetStatus(context.Background(), "spn2-abc")
	require.NoError(t, err)
	require.Nil(t, status.Payload)
	require.Equal(t, http.StatusNotFound, status.StatusCode)
	require.Equal(t, "no such job", status.Raw)
}

func TestGetStatusTransportError(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.script(statusKey, reply{err: errConnReset})
	a := newTestArchiver(t, testConfig(), client)

	_, err := a.GetStatus(context.Background(), "spn2-abc")
	require.ErrorIs(t, err, errConnReset)
}

func TestGetStatusRejectsEmptyJobID(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	a := newTestArchiver(t, testConfig(), client)

	_, err := a.GetStatus(context.Background(), "  ")
	require.ErrorIs(t, err, spn.ErrEmptyJobID)
	require.Empty(t, client.allCalls())
}
