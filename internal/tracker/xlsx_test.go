package tracker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sekbote/job-applier/internal/types"
)

func testRecord(jobID string) types.TrackerRecord {
	return types.TrackerRecord{
		JobID:           jobID,
		Title:           "Backend Engineer",
		Company:         "Acme Corp",
		Location:        "Remote",
		ApplyURL:        "https://www.linkedin.com/jobs/view/1",
		Score:           78,
		Strengths:       []string{"Go", "Postgres"},
		Gaps:            []string{"Kubernetes"},
		MissingKeywords: []string{"terraform", "grpc"},
		Status:          types.StatusPending,
		ScrapedAt:       time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC),
	}
}

func TestInitCreatesTracker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs_tracker.xlsx")
	store := NewXLSXStore(path, nil)

	require.NoError(t, store.Init())
	_, err := os.Stat(path)
	require.NoError(t, err)

	// Init on an existing tracker is a no-op.
	require.NoError(t, store.Init())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Jobs")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Job Id", rows[0][0])
}

func TestUpsertAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs_tracker.xlsx")
	store := NewXLSXStore(path, nil)
	rec := testRecord("linkedin:abc123def456")

	require.NoError(t, store.Upsert(rec))

	got, err := store.Get(rec.JobID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.Title, got.Title)
	assert.Equal(t, rec.Score, got.Score)
	assert.Equal(t, rec.Strengths, got.Strengths)
	assert.Equal(t, rec.MissingKeywords, got.MissingKeywords)
	assert.Equal(t, types.StatusPending, got.Status)
	assert.True(t, got.ScrapedAt.Equal(rec.ScrapedAt))

	ok, err := store.Exists(rec.JobID)
	require.NoError(t, err)
	assert.True(t, ok)

	missing, err := store.Get("linkedin:nosuchjob99")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpsertReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs_tracker.xlsx")
	store := NewXLSXStore(path, nil)
	rec := testRecord("linkedin:abc123def456")

	require.NoError(t, store.Upsert(rec))

	rec.Status = types.StatusApplied
	rec.Strategy = "easy_apply"
	rec.AppliedAt = time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC)
	require.NoError(t, store.Upsert(rec))

	all, err := store.List(Filter{})
	require.NoError(t, err)
	require.Len(t, all, 1, "upsert must replace, not append")
	assert.Equal(t, types.StatusApplied, all[0].Status)
	assert.Equal(t, "easy_apply", all[0].Strategy)
}

func TestListFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs_tracker.xlsx")
	store := NewXLSXStore(path, nil)

	a := testRecord("linkedin:aaa111aaa111")
	b := testRecord("indeed:bbb222bbb222")
	b.Status = types.StatusSkipped
	require.NoError(t, store.Upsert(a))
	require.NoError(t, store.Upsert(b))

	skipped, err := store.List(Filter{Status: types.StatusSkipped})
	require.NoError(t, err)
	require.Len(t, skipped, 1)
	assert.Equal(t, b.JobID, skipped[0].JobID)

	all, err := store.List(Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs_tracker.xlsx")
	store := NewXLSXStore(path, nil)

	rec := testRecord("linkedin:abc123def456")
	rec.Status = types.StatusFailed
	rec.Strategy = "blind_fill"
	require.NoError(t, store.Upsert(rec))

	require.NoError(t, store.Reset(rec.JobID))

	got, err := store.Get(rec.JobID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, types.StatusPending, got.Status)
	assert.Empty(t, got.Strategy)

	var notFound *NotFoundError
	err = store.Reset("linkedin:nosuchjob99")
	require.ErrorAs(t, err, &notFound)
}

func TestSafeSaveFallsBackWhenPrimaryLocked(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs_tracker.xlsx")
	store := NewXLSXStore(path, nil)
	store.now = func() time.Time { return time.Date(2026, 8, 30, 14, 5, 9, 0, time.UTC) }

	// A directory at the primary path makes the rename fail the same way a
	// viewer holding the file open does on Windows.
	require.NoError(t, os.Mkdir(path, 0o755))

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "Jobs"))

	savedTo, err := store.safeSave(f, path)
	require.NoError(t, err)
	assert.NotEqual(t, path, savedTo)
	assert.Equal(t, "jobs_tracker_140509.xlsx", filepath.Base(savedTo))

	_, err = os.Stat(savedTo)
	require.NoError(t, err)
}

func TestGetConsultsFallbackSiblings(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "jobs_tracker.xlsx")

	// A record that landed in a contention fallback file must still be found.
	fallback := NewXLSXStore(filepath.Join(dir, "jobs_tracker_140509.xlsx"), nil)
	rec := testRecord("linkedin:abc123def456")
	rec.Status = types.StatusApplied
	require.NoError(t, fallback.Upsert(rec))

	store := NewXLSXStore(primary, nil)
	got, err := store.Get(rec.JobID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, types.StatusApplied, got.Status)

	ok, err := store.Exists(rec.JobID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSplitJoinList(t *testing.T) {
	assert.Equal(t, "a; b; c", joinList([]string{"a", "b", "c"}))
	assert.Equal(t, []string{"a", "b", "c"}, splitList("a; b; c"))
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"x"}, splitList(" x ; "))
}

func TestHeaderTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"job_id", "Job Id"},
		{"missing_keywords", "Missing Keywords"},
		{"score", "Score"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, headerTitle(tt.in))
	}
}

func TestParseRowShortRow(t *testing.T) {
	rec := parseRow([]string{"linkedin:abc123def456", "Engineer"})
	assert.Equal(t, "linkedin:abc123def456", rec.JobID)
	assert.Equal(t, "Engineer", rec.Title)
	assert.Zero(t, rec.Score)
	assert.True(t, rec.ScrapedAt.IsZero())
}

func TestMemStore(t *testing.T) {
	store := NewMemStore()
	rec := testRecord("linkedin:abc123def456")

	require.NoError(t, store.Upsert(rec))
	require.NoError(t, store.Upsert(rec))
	assert.Equal(t, 2, store.UpsertCount)

	all, err := store.List(Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, store.Reset(rec.JobID))
	got, err := store.Get(rec.JobID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, got.Status)

	var notFound *NotFoundError
	require.ErrorAs(t, store.Reset("missing"), &notFound)
}
