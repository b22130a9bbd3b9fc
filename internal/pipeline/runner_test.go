package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekbote/job-applier/internal/engine"
	"github.com/sekbote/job-applier/internal/runguard"
	"github.com/sekbote/job-applier/internal/scraper"
	"github.com/sekbote/job-applier/internal/tracker"
	"github.com/sekbote/job-applier/internal/types"
)

type fakeScraper struct {
	jobs  []types.JobListing
	err   error
	calls int
}

func (f *fakeScraper) Scrape(_ context.Context, _ scraper.Query) ([]types.JobListing, error) {
	f.calls++
	return f.jobs, f.err
}

type fakeScorer struct {
	scores map[string]int
	err    error
	errFor map[string]error
	calls  int
}

func (f *fakeScorer) Score(_ context.Context, _ string, job types.JobListing) (*types.ScoreResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if err, ok := f.errFor[job.ID]; ok {
		return nil, err
	}
	score := 80
	if s, ok := f.scores[job.ID]; ok {
		score = s
	}
	return &types.ScoreResult{JobID: job.ID, Score: score, Strengths: []string{"Go"}}, nil
}

type fakeTailorer struct {
	err   error
	calls int
}

func (f *fakeTailorer) Tailor(_ context.Context, _ *types.Profile, _ string, job types.JobListing, _ *types.ScoreResult, _ string) (*types.TailoredResume, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &types.TailoredResume{
		JobID:       job.ID,
		FilePath:    "tailored/" + job.ID + ".pdf",
		GeneratedAt: time.Now(),
	}, nil
}

type fakeApplier struct {
	store       *tracker.MemStore
	status      types.Status
	calls       int
	resumePaths []string
}

func (f *fakeApplier) Apply(_ context.Context, job types.JobListing, rec types.TrackerRecord, resumePath string) (engine.Outcome, error) {
	f.calls++
	f.resumePaths = append(f.resumePaths, resumePath)
	status := f.status
	if status == "" {
		status = types.StatusApplied
	}
	rec.Status = status
	rec.ResumePath = resumePath
	_ = f.store.Upsert(rec)
	return engine.Outcome{Status: status, Strategy: engine.StrategyEasyApply}, nil
}

type fakeExtractor struct{ calls int }

func (f *fakeExtractor) Extract(_ context.Context, _ string) (*types.Profile, error) {
	f.calls++
	return &types.Profile{FullName: "Ada Lovelace", Email: "ada@example.com"}, nil
}

type fixture struct {
	runner   *Runner
	guard    *runguard.MemGuard
	store    *tracker.MemStore
	scraper  *fakeScraper
	scorer   *fakeScorer
	tailorer *fakeTailorer
	applier  *fakeApplier
	params   Params
}

func job(id, title string) types.JobListing {
	return types.JobListing{
		ID:        id,
		Title:     title,
		Company:   "Acme",
		ApplyURL:  "https://www.linkedin.com/jobs/view/" + title,
		Platform:  "linkedin",
		ScrapedAt: time.Now(),
	}
}

func newFixture(t *testing.T, jobs ...types.JobListing) *fixture {
	t.Helper()

	resume := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(resume, []byte("ten years of Go"), 0o644))

	f := &fixture{
		guard:    runguard.NewMemGuard(),
		store:    tracker.NewMemStore(),
		scraper:  &fakeScraper{jobs: jobs},
		scorer:   &fakeScorer{scores: map[string]int{}, errFor: map[string]error{}},
		tailorer: &fakeTailorer{},
	}
	f.applier = &fakeApplier{store: f.store}
	f.runner = NewRunner(f.guard, f.store, f.scraper, &fakeExtractor{}, f.scorer, f.tailorer, f.applier, nil, nil)
	f.runner.sleep = func(time.Duration) {}
	f.params = Params{
		Role:       "Engineer",
		Platforms:  []string{"linkedin"},
		MaxJobs:    5,
		MinScore:   65,
		Template:   "professional",
		BaseResume: resume,
	}
	return f
}

func TestRunAppliesToStrongMatch(t *testing.T) {
	f := newFixture(t, job("linkedin:xyz789xyz789", "1"))

	summary, err := f.runner.Run(context.Background(), f.params)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Scraped)
	assert.Equal(t, 1, summary.Applied)
	assert.Equal(t, 1, f.applier.calls)
	assert.Equal(t, []string{"tailored/linkedin:xyz789xyz789.pdf"}, f.applier.resumePaths,
		"the tailored resume is what gets submitted")

	ran, err := f.guard.HasRunToday()
	require.NoError(t, err)
	assert.True(t, ran, "successful run marks the guard")
}

func TestRunSecondSameDayIsNoOp(t *testing.T) {
	f := newFixture(t, job("linkedin:xyz789xyz789", "1"))

	_, err := f.runner.Run(context.Background(), f.params)
	require.NoError(t, err)

	_, err = f.runner.Run(context.Background(), f.params)
	require.ErrorIs(t, err, ErrAlreadyRan)

	assert.Equal(t, 1, f.scraper.calls, "second run performs no scraping")
	assert.Equal(t, 1, f.scorer.calls)
	assert.Equal(t, 1, f.applier.calls)
}

func TestRunForceBypassesGuard(t *testing.T) {
	f := newFixture(t, job("linkedin:xyz789xyz789", "1"))

	_, err := f.runner.Run(context.Background(), f.params)
	require.NoError(t, err)

	// The job is now terminal, so the forced run scrapes but applies nothing.
	forced := f.params
	forced.Force = true
	summary, err := f.runner.Run(context.Background(), forced)
	require.NoError(t, err)
	assert.Equal(t, 2, f.scraper.calls)
	assert.Zero(t, summary.Applied)
}

func TestRunSkipsBelowThreshold(t *testing.T) {
	f := newFixture(t, job("linkedin:abc123abc123", "1"))
	f.scorer.scores["linkedin:abc123abc123"] = 40

	summary, err := f.runner.Run(context.Background(), f.params)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, f.tailorer.calls, "no tailoring for skipped jobs")
	assert.Zero(t, f.applier.calls, "the engine is never consulted")

	rec, err := f.store.Get("linkedin:abc123abc123")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, types.StatusSkipped, rec.Status)
	assert.Equal(t, 40, rec.Score)
	assert.Contains(t, rec.Notes, "below threshold 65")
	assert.Equal(t, 1, f.store.UpsertCount, "exactly one record write for a skipped job")
}

func TestRunDryRunRecordsPending(t *testing.T) {
	f := newFixture(t, job("linkedin:xyz789xyz789", "1"))
	f.params.DryRun = true

	summary, err := f.runner.Run(context.Background(), f.params)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Pending)
	assert.Equal(t, 1, f.tailorer.calls, "dry run still tailors")
	assert.Zero(t, f.applier.calls, "dry run never applies")

	rec, err := f.store.Get("linkedin:xyz789xyz789")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, types.StatusPending, rec.Status)
	assert.Contains(t, rec.Notes, "dry_run - not applied")
}

func TestRunTailoringFailureFallsBackToBaseResume(t *testing.T) {
	f := newFixture(t, job("linkedin:xyz789xyz789", "1"))
	f.tailorer.err = errors.New("render failed")

	summary, err := f.runner.Run(context.Background(), f.params)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Applied)
	require.Len(t, f.applier.resumePaths, 1)
	assert.Equal(t, f.params.BaseResume, f.applier.resumePaths[0])
}

func TestRunScoringFailureIsolatedPerJob(t *testing.T) {
	f := newFixture(t,
		job("linkedin:aaa111aaa111", "1"),
		job("linkedin:bbb222bbb222", "2"),
	)
	f.scorer.errFor["linkedin:aaa111aaa111"] = errors.New("model unavailable")

	summary, err := f.runner.Run(context.Background(), f.params)
	require.NoError(t, err, "one job's failure never aborts the run")

	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Applied)

	rec, err := f.store.Get("linkedin:aaa111aaa111")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, types.StatusFailed, rec.Status)
	assert.Contains(t, rec.Notes, "scoring failed")
}

func TestRunSkipsTerminalRecords(t *testing.T) {
	f := newFixture(t, job("linkedin:aaa111aaa111", "1"))
	require.NoError(t, f.store.Upsert(types.TrackerRecord{
		JobID:  "linkedin:aaa111aaa111",
		Status: types.StatusApplied,
	}))

	summary, err := f.runner.Run(context.Background(), f.params)
	require.NoError(t, err)

	assert.Zero(t, f.scorer.calls, "terminal jobs are filtered before scoring")
	assert.Zero(t, summary.Applied)
}

func TestRunHonorsMaxJobs(t *testing.T) {
	f := newFixture(t,
		job("linkedin:aaa111aaa111", "1"),
		job("linkedin:bbb222bbb222", "2"),
		job("linkedin:ccc333ccc333", "3"),
	)
	f.params.MaxJobs = 2

	summary, err := f.runner.Run(context.Background(), f.params)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Applied)
	assert.Equal(t, 2, f.applier.calls)
}

func TestRunOnScoreHookSeesEveryResult(t *testing.T) {
	f := newFixture(t,
		job("linkedin:aaa111aaa111", "1"),
		job("linkedin:bbb222bbb222", "2"),
	)
	f.scorer.scores["linkedin:bbb222bbb222"] = 40

	var seen []string
	f.runner.OnScore = func(j types.JobListing, score *types.ScoreResult) {
		seen = append(seen, fmt.Sprintf("%s=%d", j.ID, score.Score))
	}

	_, err := f.runner.Run(context.Background(), f.params)
	require.NoError(t, err)

	assert.Equal(t, []string{"linkedin:aaa111aaa111=80", "linkedin:bbb222bbb222=40"}, seen,
		"skipped jobs are still reported, only scoring failures are not")
}

func TestRunZeroListingsStillMarksGuard(t *testing.T) {
	f := newFixture(t)

	summary, err := f.runner.Run(context.Background(), f.params)
	require.NoError(t, err)
	assert.Zero(t, summary.Scraped)

	ran, err := f.guard.HasRunToday()
	require.NoError(t, err)
	assert.True(t, ran, "an empty day still counts as a completed run")
}

func TestRunScrapeFailureDoesNotMarkGuard(t *testing.T) {
	f := newFixture(t)
	f.scraper.err = &scraper.ScrapeError{Platform: "all", Message: "every platform failed"}

	_, err := f.runner.Run(context.Background(), f.params)
	require.Error(t, err)

	ran, guardErr := f.guard.HasRunToday()
	require.NoError(t, guardErr)
	assert.False(t, ran, "a failed run may be retried the same day")
}

func TestRunRequestsScrapeHeadroom(t *testing.T) {
	f := newFixture(t)
	captured := &capturingScraper{}
	f.runner.Scraper = captured
	f.params.MaxJobs = 5

	_, err := f.runner.Run(context.Background(), f.params)
	require.NoError(t, err)
	assert.Equal(t, 15, captured.query.Limit, "scrape over-fetches to survive filtering")
}

type capturingScraper struct {
	query scraper.Query
}

func (c *capturingScraper) Scrape(_ context.Context, q scraper.Query) ([]types.JobListing, error) {
	c.query = q
	return nil, nil
}
