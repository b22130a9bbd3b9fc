// Package types contains the shared data model for the job application pipeline.
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// JobListing is a single scraped job posting. Immutable once scraped.
type JobListing struct {
	ID          string    `json:"job_id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	ApplyURL    string    `json:"apply_url"`
	Platform    string    `json:"platform"`
	PostedDate  string    `json:"posted_date,omitempty"`
	ScrapedAt   time.Time `json:"scraped_at"`
}

// MakeJobID derives a stable job identifier from the listing's platform and
// identifying fields. The same posting scraped twice yields the same ID, so the
// tracker can deduplicate across runs.
func MakeJobID(platform, url, company, title string) string {
	raw := strings.ToLower(strings.TrimSpace(url + company + title))
	sum := sha256.Sum256([]byte(raw))
	return platform + ":" + hex.EncodeToString(sum[:])[:12]
}

// IsLinkedIn reports whether the listing's application flow is hosted on LinkedIn.
func (j *JobListing) IsLinkedIn() bool {
	return strings.Contains(j.ApplyURL, "linkedin.com")
}
