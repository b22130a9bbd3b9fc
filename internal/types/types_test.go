package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeJobID(t *testing.T) {
	id := MakeJobID("linkedin", "https://example.com/job/1", "Acme", "Engineer")

	parts := strings.SplitN(id, ":", 2)
	assert.Equal(t, "linkedin", parts[0])
	assert.Len(t, parts[1], 12)

	// Same inputs give the same ID across runs.
	again := MakeJobID("linkedin", "https://example.com/job/1", "Acme", "Engineer")
	assert.Equal(t, id, again)

	// Matching is case-insensitive on the identifying fields.
	upper := MakeJobID("linkedin", "HTTPS://EXAMPLE.COM/JOB/1", "ACME", "ENGINEER")
	assert.Equal(t, id, upper)
}

func TestMakeJobIDDistinct(t *testing.T) {
	a := MakeJobID("linkedin", "https://example.com/job/1", "Acme", "Engineer")
	b := MakeJobID("linkedin", "https://example.com/job/2", "Acme", "Engineer")
	c := MakeJobID("indeed", "https://example.com/job/1", "Acme", "Engineer")

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestIsLinkedIn(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.linkedin.com/jobs/view/123", true},
		{"https://jobs.acme.com/apply/456", false},
		{"", false},
	}

	for _, tt := range tests {
		job := JobListing{ApplyURL: tt.url}
		assert.Equal(t, tt.want, job.IsLinkedIn(), tt.url)
	}
}

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusPending, false},
		{StatusSkipped, true},
		{StatusApplied, true},
		{StatusFailed, true},
		{StatusManualRequired, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.terminal, tt.status.Terminal(), string(tt.status))
		assert.True(t, tt.status.Valid(), string(tt.status))
	}

	assert.False(t, Status("bogus").Valid())
}

func TestScoreResultClamp(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-5, 0},
		{0, 0},
		{72, 72},
		{100, 100},
		{140, 100},
	}

	for _, tt := range tests {
		s := ScoreResult{Score: tt.in}
		s.Clamp()
		assert.Equal(t, tt.want, s.Score)
	}
}

func TestNewTrackerRecord(t *testing.T) {
	job := JobListing{
		ID:       "linkedin:abc123def456",
		Title:    "Engineer",
		Company:  "Acme",
		Location: "Remote",
		ApplyURL: "https://www.linkedin.com/jobs/view/1",
	}

	rec := NewTrackerRecord(job)
	assert.Equal(t, job.ID, rec.JobID)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Empty(t, rec.Strategy)
	assert.True(t, rec.AppliedAt.IsZero())
}

func TestProfileNames(t *testing.T) {
	p := Profile{FullName: "Ada Mary Lovelace"}
	assert.Equal(t, "Ada", p.FirstName())
	assert.Equal(t, "Lovelace", p.LastName())

	empty := Profile{}
	assert.Empty(t, empty.FirstName())
	assert.Empty(t, empty.LastName())
}
