// Package batch models per-item outcomes of bulk operations (ingest, index build).
package batch

import "github.com/kailas-cloud/pokerag/internal/domain"

// ItemStatus is the processing outcome of a single item.
type ItemStatus string

// Item status values.
const (
	StatusOK ItemStatus = "ok"
	// StatusExcluded marks an item skipped after a retryable provider failure.
	StatusExcluded ItemStatus = "excluded"
	StatusError    ItemStatus = "error"
)

// Result is the outcome of processing one item.
type Result struct {
	id     string
	status ItemStatus
	err    error
}

// NewOK creates a successful result.
func NewOK(id string) Result { return Result{id: id, status: StatusOK} }

// NewError creates a failed result. Retryable provider failures become StatusExcluded.
func NewError(id string, err error) Result {
	if domain.IsRetryable(err) {
		return Result{id: id, status: StatusExcluded, err: err}
	}
	return Result{id: id, status: StatusError, err: err}
}

// ID returns the item identifier.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Summary counts results by status.
type Summary struct {
	OK       int `json:"ok"`
	Excluded int `json:"excluded"`
	Failed   int `json:"failed"`
}

// Summarize counts results by status.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.status {
		case StatusOK:
			s.OK++
		case StatusExcluded:
			s.Excluded++
		default:
			s.Failed++
		}
	}
	return s
}
