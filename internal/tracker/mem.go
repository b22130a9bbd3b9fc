package tracker

import (
	"sync"
	"time"

	"github.com/sekbote/job-applier/internal/types"
)

// MemStore is an in-memory Store used in tests and dry experimentation.
type MemStore struct {
	mu      sync.Mutex
	records map[string]types.TrackerRecord
	order   []string

	// UpsertCount tracks total upserts for test assertions.
	UpsertCount int
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string]types.TrackerRecord)}
}

// Exists reports whether the job has a record.
func (s *MemStore) Exists(jobID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[jobID]
	return ok, nil
}

// Get returns a copy of the record, or nil.
func (s *MemStore) Get(jobID string) (*types.TrackerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[jobID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Upsert inserts or replaces the record.
func (s *MemStore) Upsert(rec types.TrackerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.LastUpdated.IsZero() {
		rec.LastUpdated = time.Now().UTC()
	}
	if _, ok := s.records[rec.JobID]; !ok {
		s.order = append(s.order, rec.JobID)
	}
	s.records[rec.JobID] = rec
	s.UpsertCount++
	return nil
}

// List returns records in insertion order.
func (s *MemStore) List(filter Filter) ([]types.TrackerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.TrackerRecord
	for _, id := range s.order {
		rec := s.records[id]
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Reset returns a record to pending.
func (s *MemStore) Reset(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[jobID]
	if !ok {
		return &NotFoundError{JobID: jobID}
	}
	rec.Status = types.StatusPending
	rec.Strategy = ""
	rec.AppliedAt = time.Time{}
	rec.LastUpdated = time.Now().UTC()
	s.records[jobID] = rec
	return nil
}
