package archiver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/archivooor/archivooor/internal/spn"
)

// NormalizeSubmission maps a save endpoint response onto a Result.
//
// Non-200 responses are valid results carrying the status code and body
// text. A 200 whose body is not a JSON object returns an error, which the
// pipeline treats as a failed attempt.
func NormalizeSubmission(target string, statusCode int, body []byte) (spn.Result, error) {
	if statusCode != http.StatusOK {
		return spn.Result{
			URL:         target,
			StatusCode:  statusCode,
			RawResponse: string(body),
		}, nil
	}

	payload, err := decodeObject(body)
	if err != nil {
		return spn.Result{URL: target, RawResponse: string(body)}, fmt.Errorf("decode save response for %s: %w", target, err)
	}

	jobID := stringValue(payload["job_id"])
	status := stringValue(payload["status"])
	// Newly accepted jobs come back without a status.
	if payload["status"] == nil && jobID != "" {
		status = spn.StatusSubmitted
	}

	return spn.Result{
		URL:         target,
		JobID:       jobID,
		Message:     stringValue(payload["message"]),
		Status:      status,
		RawResponse: payload,
	}, nil
}

// NormalizeAccount classifies a user status response into its variant.
func NormalizeAccount(statusCode int, body []byte) spn.AccountStatus {
	text := string(body)
	if statusCode != http.StatusOK {
		return spn.AccountStatus{Kind: spn.AccountHTTPError, StatusCode: statusCode, Text: text}
	}

	payload, err := decodeObject(body)
	if err != nil {
		if bytes.Contains(body, []byte(spn.RateLimitedMessage)) {
			return spn.AccountStatus{
				Kind:       spn.AccountRateLimited,
				StatusCode: http.StatusTooManyRequests,
				Text:       spn.RateLimitedMessage,
			}
		}
		return spn.AccountStatus{Kind: spn.AccountRawText, StatusCode: statusCode, Text: text}
	}

	status := spn.AccountStatus{Kind: spn.AccountQuota, StatusCode: statusCode, Payload: payload}
	status.Available, _ = spn.IntField(payload, "available")
	status.Processing, _ = spn.IntField(payload, "processing")
	return status
}

// NormalizeJob maps a job status response onto a JobStatus.
func NormalizeJob(statusCode int, body []byte) spn.JobStatus {
	if statusCode != http.StatusOK {
		return spn.JobStatus{StatusCode: statusCode, Raw: string(body)}
	}
	payload, err := decodeObject(body)
	if err != nil {
		return spn.JobStatus{StatusCode: statusCode, Raw: string(body)}
	}
	return spn.JobStatus{StatusCode: statusCode, Payload: payload}
}

func decodeObject(body []byte) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
