// Package spn defines the types shared by the Save Page Now client: the
// credential pair, submission options, normalized results, job and account
// status records, and the small interfaces the worker pool is built from.
package spn
