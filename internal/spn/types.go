package spn

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
)

// StatusSubmitted is synthesized for accepted jobs whose response omits a status.
const StatusSubmitted = "submitted"

// StatusError is the job status the service reports for transient failures.
const StatusError = "error"

// Credential is the S3-style key pair used for the LOW authorization scheme.
type Credential struct {
	AccessKey string
	SecretKey string
}

// Complete reports whether both halves of the pair are present.
func (c Credential) Complete() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}

// AuthorizationHeader renders the value of the Authorization header.
func (c Credential) AuthorizationHeader() string {
	return fmt.Sprintf("LOW %s:%s", c.AccessKey, c.SecretKey)
}

// Options are the capture flags sent with every submission.
type Options struct {
	CaptureAll           bool
	CaptureOutlinks      bool
	CaptureScreenshot    bool
	ForceGet             bool
	SkipFirstArchive     bool
	OutlinksAvailability bool
	EmailResult          bool
}

// DefaultOptions mirrors the service defaults: only skip_first_archive is set.
func DefaultOptions() Options {
	return Options{SkipFirstArchive: true}
}

// Form encodes the options plus the target URL as the submission body.
// Booleans are rendered as True/False, which the endpoint accepts.
func (o Options) Form(target string) url.Values {
	form := url.Values{}
	form.Set("url", target)
	form.Set("capture_all", formBool(o.CaptureAll))
	form.Set("capture_outlinks", formBool(o.CaptureOutlinks))
	form.Set("force_get", formBool(o.ForceGet))
	form.Set("skip_first_archive", formBool(o.SkipFirstArchive))
	form.Set("capture_screenshot", formBool(o.CaptureScreenshot))
	form.Set("outlinks_availability", formBool(o.OutlinksAvailability))
	form.Set("email_result", formBool(o.EmailResult))
	return form
}

func formBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

// Result is the normalized outcome of submitting one URL.
//
// A result with a JobID was accepted by the service; a result with a
// StatusCode was rejected at the HTTP layer. Err is only set when the URL
// never produced a response within the retry budget.
type Result struct {
	URL         string
	JobID       string
	Message     string
	Status      string
	StatusCode  int
	RawResponse any
	Attempts    int
	Err         error
}

// Accepted reports whether the service returned a job for the URL.
func (r Result) Accepted() bool {
	return r.JobID != ""
}

// Field is one printable key/value pair.
type Field struct {
	Key   string
	Value any
}

// Fields returns the record in display order, omitting absent values.
func (r Result) Fields() []Field {
	fields := []Field{{Key: "url", Value: r.URL}}
	if r.StatusCode != 0 {
		fields = append(fields, Field{Key: "status_code", Value: r.StatusCode})
	} else {
		fields = append(fields,
			Field{Key: "job_id", Value: r.JobID},
			Field{Key: "message", Value: r.Message},
			Field{Key: "status", Value: r.Status},
		)
	}
	if r.Err != nil {
		fields = append(fields, Field{Key: "error", Value: r.Err.Error()})
	}
	fields = append(fields,
		Field{Key: "attempts", Value: r.Attempts},
		Field{Key: "full_response", Value: r.RawResponse},
	)
	return fields
}

// JobStatus is the decoded payload of the job status endpoint.
// When the endpoint answers with a non-200 status, StatusCode and Raw hold
// the response instead of Payload.
type JobStatus struct {
	Payload    map[string]any
	StatusCode int
	Raw        string
}

// Status returns the payload's status string.
func (j JobStatus) Status() string {
	return stringField(j.Payload, "status")
}

// OriginalURL returns the URL the job captured.
func (j JobStatus) OriginalURL() string {
	return stringField(j.Payload, "original_url")
}

// OutlinksSaved returns the number of outlinks reported for the job.
func (j JobStatus) OutlinksSaved() int {
	switch v := j.Payload["outlinks"].(type) {
	case []any:
		return len(v)
	case map[string]any:
		return len(v)
	default:
		return 0
	}
}

func stringField(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	switch v := payload[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// AccountKind tags the shape of an AccountStatus.
type AccountKind string

// Account status variants.
const (
	AccountQuota       AccountKind = "quota"
	AccountRateLimited AccountKind = "rate_limited"
	AccountRawText     AccountKind = "raw_text"
	AccountHTTPError   AccountKind = "http_error"
)

// RateLimitedMessage is reported when the service throttles the quota query.
const RateLimitedMessage = "Too Many Requests"

// AccountStatus is the session quota of the authenticated account.
// Only the fields relevant to Kind are populated.
type AccountStatus struct {
	Kind       AccountKind
	Available  int
	Processing int
	Payload    map[string]any
	StatusCode int
	Text       string
}

// Fields returns the record in display order for the given variant.
func (a AccountStatus) Fields() []Field {
	switch a.Kind {
	case AccountQuota:
		return payloadFields(a.Payload)
	case AccountRateLimited, AccountHTTPError:
		return []Field{
			{Key: "status_code", Value: a.StatusCode},
			{Key: "message", Value: a.Text},
		}
	default:
		return []Field{{Key: "response", Value: a.Text}}
	}
}

// Fields returns every payload key for verbose output.
func (j JobStatus) Fields() []Field {
	if j.Payload == nil {
		return []Field{
			{Key: "status_code", Value: j.StatusCode},
			{Key: "response", Value: j.Raw},
		}
	}
	return payloadFields(j.Payload)
}

func payloadFields(payload map[string]any) []Field {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{Key: k, Value: payload[k]})
	}
	return fields
}

// IntField reads an integer-valued JSON number from the payload.
func IntField(payload map[string]any, key string) (int, bool) {
	switch v := payload[key].(type) {
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	default:
		return 0, false
	}
}
