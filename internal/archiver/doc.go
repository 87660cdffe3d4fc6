// Package archiver implements the Save Page Now client: concurrent batch
// submission with bounded recovery of failed URLs, job status polling, and
// the account quota query. Every request goes through one shared HTTP
// client bound to the caller's credential pair.
package archiver
