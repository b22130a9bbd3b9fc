package types

import "time"

// Status is the lifecycle state of a tracked job.
type Status string

// Tracker statuses. A job in any status other than StatusPending is terminal
// and is never reprocessed unless explicitly reset.
const (
	StatusPending        Status = "pending"
	StatusSkipped        Status = "skipped"
	StatusApplied        Status = "applied"
	StatusFailed         Status = "failed"
	StatusManualRequired Status = "manual_required"
)

// Terminal reports whether a record in this status must not be reprocessed.
func (s Status) Terminal() bool {
	switch s {
	case StatusSkipped, StatusApplied, StatusFailed, StatusManualRequired:
		return true
	}
	return false
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	return s == StatusPending || s.Terminal()
}

// TrackerRecord is one row of the persistent job ledger, keyed by JobID.
// Created on first sighting of a job and mutated once per pipeline stage
// transition; never deleted except by explicit maintenance action.
type TrackerRecord struct {
	JobID           string    `json:"job_id"`
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	Location        string    `json:"location"`
	ApplyURL        string    `json:"apply_url"`
	Score           int       `json:"match_score"`
	Strengths       []string  `json:"strengths"`
	Gaps            []string  `json:"gaps"`
	MissingKeywords []string  `json:"keywords_missing"`
	ResumePath      string    `json:"tailored_resume_path"`
	Status          Status    `json:"status"`
	Strategy        string    `json:"strategy,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	ScrapedAt       time.Time `json:"scraped_at"`
	AppliedAt       time.Time `json:"applied_at,omitempty"`
	LastUpdated     time.Time `json:"last_updated"`
}

// NewTrackerRecord builds a record from a listing with pipeline fields zeroed.
func NewTrackerRecord(job JobListing) TrackerRecord {
	return TrackerRecord{
		JobID:     job.ID,
		Title:     job.Title,
		Company:   job.Company,
		Location:  job.Location,
		ApplyURL:  job.ApplyURL,
		Status:    StatusPending,
		ScrapedAt: job.ScrapedAt,
	}
}
