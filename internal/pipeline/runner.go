// Package pipeline orchestrates one scrape-score-tailor-apply run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sekbote/job-applier/internal/engine"
	"github.com/sekbote/job-applier/internal/profile"
	"github.com/sekbote/job-applier/internal/runguard"
	"github.com/sekbote/job-applier/internal/scraper"
	"github.com/sekbote/job-applier/internal/tailoring"
	"github.com/sekbote/job-applier/internal/tracker"
	"github.com/sekbote/job-applier/internal/types"
)

// ErrAlreadyRan is returned when the run guard says today's run already happened.
var ErrAlreadyRan = errors.New("pipeline already ran today")

// scrapeHeadroom over-fetches listings so the per-run job cap can still be
// met after terminal records are filtered out.
const scrapeHeadroom = 3

// Scorer rates a job against the resume.
type Scorer interface {
	Score(ctx context.Context, resumeText string, job types.JobListing) (*types.ScoreResult, error)
}

// Applier submits one application and records its terminal outcome.
type Applier interface {
	Apply(ctx context.Context, job types.JobListing, rec types.TrackerRecord, resumePath string) (engine.Outcome, error)
}

// ProfileExtractor produces the applicant profile from the base resume.
type ProfileExtractor interface {
	Extract(ctx context.Context, resumePath string) (*types.Profile, error)
}

// History is the optional run-history sink. All calls are best effort.
type History interface {
	CreateRun(ctx context.Context, role string, platforms []string) (uuid.UUID, error)
	CompleteRun(ctx context.Context, runID uuid.UUID, status string, scraped, applied, failed int) error
	RecordAttempt(ctx context.Context, runID uuid.UUID, jobID, status, strategy string, score int, durationMs int64) error
	SaveArtifact(ctx context.Context, runID uuid.UUID, jobID, kind string, content any) error
}

// Params is the per-run configuration.
type Params struct {
	Role       string
	Locations  []string
	Platforms  []string
	DaysBack   int
	MaxJobs    int
	MinScore   int
	Template   string
	BaseResume string
	DryRun     bool
	Force      bool
}

// Summary reports what one run did.
type Summary struct {
	Scraped        int
	Scored         int
	Skipped        int
	Applied        int
	Failed         int
	ManualRequired int
	Pending        int
}

// Runner wires the pipeline stages together.
type Runner struct {
	Guard     runguard.Guard
	Store     tracker.Store
	Scraper   scraper.Scraper
	Extractor ProfileExtractor
	Scorer    Scorer
	Tailorer  tailoring.Tailorer
	Engine    Applier
	History   History
	Logger    *zap.Logger

	// OnScore, when set, is called with every score result. Verbose mode
	// hangs its console output here.
	OnScore func(job types.JobListing, score *types.ScoreResult)

	// sleep is swapped out in tests to skip the inter-job delay.
	sleep func(time.Duration)
	now   func() time.Time
}

// NewRunner creates a Runner. History may be nil.
func NewRunner(guard runguard.Guard, store tracker.Store, sc scraper.Scraper, ex ProfileExtractor, scorer Scorer, tailorer tailoring.Tailorer, eng Applier, hist History, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		Guard:     guard,
		Store:     store,
		Scraper:   sc,
		Extractor: ex,
		Scorer:    scorer,
		Tailorer:  tailorer,
		Engine:    eng,
		History:   hist,
		Logger:    logger,
		sleep:     time.Sleep,
		now:       time.Now,
	}
}

// Run executes the full pipeline. It returns ErrAlreadyRan when the guard
// blocks a same-day rerun and p.Force is unset. Any other error means the run
// aborted before completion and the guard was not marked.
func (r *Runner) Run(ctx context.Context, p Params) (*Summary, error) {
	ran, err := r.Guard.HasRunToday()
	if err != nil {
		return nil, fmt.Errorf("run guard: %w", err)
	}
	if ran && !p.Force {
		r.Logger.Info("already ran today, skipping")
		return nil, ErrAlreadyRan
	}

	prof, err := r.Extractor.Extract(ctx, p.BaseResume)
	if err != nil {
		return nil, err
	}
	resumeText, err := profile.ReadResumeText(p.BaseResume)
	if err != nil {
		return nil, fmt.Errorf("reading base resume: %w", err)
	}

	jobs, err := r.Scraper.Scrape(ctx, scraper.Query{
		Role:      p.Role,
		Locations: p.Locations,
		Platforms: p.Platforms,
		DaysBack:  p.DaysBack,
		Limit:     p.MaxJobs * scrapeHeadroom,
	})
	if err != nil {
		return nil, err
	}
	r.Logger.Info("scrape complete", zap.Int("listings", len(jobs)))

	var runID uuid.UUID
	if r.History != nil {
		if id, err := r.History.CreateRun(ctx, p.Role, p.Platforms); err != nil {
			r.Logger.Warn("run history unavailable", zap.Error(err))
			r.History = nil
		} else {
			runID = id
		}
	}

	summary := &Summary{Scraped: len(jobs)}
	processed := 0
	for _, job := range jobs {
		if processed >= p.MaxJobs {
			break
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if rec, err := r.Store.Get(job.ID); err == nil && rec != nil && rec.Status.Terminal() {
			r.Logger.Debug("already processed", zap.String("job_id", job.ID))
			continue
		}

		r.processJob(ctx, p, job, prof, resumeText, runID, summary)
		processed++

		if !p.DryRun && processed < p.MaxJobs {
			r.politeDelay()
		}
	}

	if r.History != nil {
		if err := r.History.CompleteRun(ctx, runID, "completed", summary.Scraped, summary.Applied, summary.Failed); err != nil {
			r.Logger.Warn("completing run history", zap.Error(err))
		}
	}

	if err := r.Guard.MarkComplete(r.now()); err != nil {
		return summary, fmt.Errorf("marking run guard: %w", err)
	}
	r.Logger.Info("run complete",
		zap.Int("scraped", summary.Scraped),
		zap.Int("applied", summary.Applied),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Int("manual", summary.ManualRequired))
	return summary, nil
}

// processJob takes one listing through score, tailor, and apply. Errors are
// recorded against the job; they never abort the run.
func (r *Runner) processJob(ctx context.Context, p Params, job types.JobListing, prof *types.Profile, resumeText string, runID uuid.UUID, summary *Summary) {
	start := r.now()
	rec := types.NewTrackerRecord(job)

	score, err := r.Scorer.Score(ctx, resumeText, job)
	if err != nil {
		r.Logger.Warn("scoring failed", zap.String("job_id", job.ID), zap.Error(err))
		rec.Status = types.StatusFailed
		rec.Notes = "scoring failed: " + err.Error()
		rec.LastUpdated = r.now()
		r.upsert(rec)
		summary.Failed++
		return
	}
	summary.Scored++
	if r.OnScore != nil {
		r.OnScore(job, score)
	}
	rec.Score = score.Score
	rec.Strengths = score.Strengths
	rec.Gaps = score.Gaps
	rec.MissingKeywords = score.MissingKeywords
	r.saveArtifact(ctx, runID, job.ID, "score", score)

	if score.Score < p.MinScore {
		rec.Status = types.StatusSkipped
		rec.Notes = fmt.Sprintf("score %d below threshold %d", score.Score, p.MinScore)
		rec.LastUpdated = r.now()
		r.upsert(rec)
		r.recordAttempt(ctx, runID, job.ID, rec, start)
		summary.Skipped++
		return
	}

	resumePath := p.BaseResume
	tailored, err := r.Tailorer.Tailor(ctx, prof, resumeText, job, score, p.Template)
	if err != nil {
		r.Logger.Warn("tailoring failed, using base resume",
			zap.String("job_id", job.ID), zap.Error(err))
		rec.Notes = appendNote(rec.Notes, "tailoring failed, base resume used")
	} else {
		resumePath = tailored.FilePath
		rec.ResumePath = tailored.FilePath
	}

	if p.DryRun {
		rec.Status = types.StatusPending
		rec.Notes = appendNote(rec.Notes, "dry_run - not applied")
		rec.LastUpdated = r.now()
		r.upsert(rec)
		summary.Pending++
		return
	}

	outcome, err := r.Engine.Apply(ctx, job, rec, resumePath)
	if err != nil {
		r.Logger.Error("apply failed to record", zap.String("job_id", job.ID), zap.Error(err))
		summary.Failed++
		return
	}
	rec.Status = outcome.Status
	rec.Strategy = outcome.Strategy
	r.recordAttempt(ctx, runID, job.ID, rec, start)

	switch outcome.Status {
	case types.StatusApplied:
		summary.Applied++
	case types.StatusManualRequired:
		summary.ManualRequired++
	case types.StatusSkipped:
		summary.Skipped++
	default:
		summary.Failed++
	}
}

func (r *Runner) upsert(rec types.TrackerRecord) {
	if err := r.Store.Upsert(rec); err != nil {
		r.Logger.Error("tracker upsert failed", zap.String("job_id", rec.JobID), zap.Error(err))
	}
}

func (r *Runner) saveArtifact(ctx context.Context, runID uuid.UUID, jobID, kind string, content any) {
	if r.History == nil {
		return
	}
	if err := r.History.SaveArtifact(ctx, runID, jobID, kind, content); err != nil {
		r.Logger.Warn("saving artifact", zap.Error(err))
	}
}

func (r *Runner) recordAttempt(ctx context.Context, runID uuid.UUID, jobID string, rec types.TrackerRecord, start time.Time) {
	if r.History == nil {
		return
	}
	dur := r.now().Sub(start).Milliseconds()
	if err := r.History.RecordAttempt(ctx, runID, jobID, string(rec.Status), rec.Strategy, rec.Score, dur); err != nil {
		r.Logger.Warn("recording attempt", zap.Error(err))
	}
}

// politeDelay waits 30 to 60 seconds between jobs so the application pace
// looks human.
func (r *Runner) politeDelay() {
	d := time.Duration(30+rand.Intn(31)) * time.Second
	r.Logger.Debug("inter-job delay", zap.Duration("sleep", d))
	r.sleep(d)
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + " | " + note
}
