// Package tracker persists the ledger of jobs seen and processed by the pipeline.
package tracker

import (
	"fmt"

	"github.com/sekbote/job-applier/internal/types"
)

// Filter narrows a List call. Zero value matches everything.
type Filter struct {
	Status types.Status
}

// Store is the persistent job ledger, keyed by job ID.
// Implementations must treat a missing backing file as an empty store.
type Store interface {
	// Exists reports whether a record for jobID is present.
	Exists(jobID string) (bool, error)
	// Get returns the record for jobID, or nil if absent.
	Get(jobID string) (*types.TrackerRecord, error)
	// Upsert inserts or replaces the record for rec.JobID.
	Upsert(rec types.TrackerRecord) error
	// List returns all records matching the filter, in ledger order.
	List(filter Filter) ([]types.TrackerRecord, error)
	// Reset clears a terminal record back to pending so it can be reprocessed.
	Reset(jobID string) error
}

// NotFoundError is returned by Reset when the job is not in the ledger.
type NotFoundError struct {
	JobID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("job %s not found in tracker", e.JobID)
}

// WriteError is returned when a record could not be persisted to the primary
// path nor to a fallback sibling.
type WriteError struct {
	Path  string
	Cause error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("tracker write failed for %s: %v", e.Path, e.Cause)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}
