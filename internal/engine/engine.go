package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sekbote/job-applier/internal/tracker"
	"github.com/sekbote/job-applier/internal/types"
)

// Strategy is one way of submitting an application. A nil return means the
// application was submitted. A RetryableError lets the chain fall through to
// the next strategy; a BlockingError stops the chain for this job.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, job types.JobListing, resumePath string) error
}

// Strategy names, in chain order.
const (
	StrategyEasyApply    = "easy_apply"
	StrategyAgentBrowser = "agent_browser"
	StrategyVisionFill   = "vision_fill"
	StrategyBlindFill    = "blind_fill"
)

// Outcome is the terminal result of one engine invocation for one job.
type Outcome struct {
	Status   types.Status
	Strategy string
	Notes    string
}

// Engine tries strategies in order until one succeeds, records exactly one
// tracker update per job, and never retries a job already in a terminal state.
type Engine struct {
	store      tracker.Store
	strategies []Strategy
	logger     *zap.Logger
	now        func() time.Time
}

// New creates an Engine over the full strategy chain. The chain order is
// fixed; per-job selection drops strategies that do not apply to the job's
// hosting platform.
func New(store tracker.Store, strategies []Strategy, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, strategies: strategies, logger: logger, now: time.Now}
}

// Apply runs the strategy chain for a job and upserts the terminal record.
// A job whose tracker record is already terminal is a no-op.
func (e *Engine) Apply(ctx context.Context, job types.JobListing, rec types.TrackerRecord, resumePath string) (Outcome, error) {
	if existing, err := e.store.Get(job.ID); err == nil && existing != nil && existing.Status.Terminal() {
		e.logger.Debug("job already terminal, skipping",
			zap.String("job_id", job.ID),
			zap.String("status", string(existing.Status)))
		return Outcome{Status: existing.Status, Strategy: existing.Strategy, Notes: existing.Notes}, nil
	}

	chain := e.chainFor(job)
	if len(chain) == 0 {
		out := Outcome{Status: types.StatusFailed, Notes: "no applicable strategy"}
		return out, e.record(job, rec, resumePath, out)
	}

	var attempts []string
	for _, s := range chain {
		e.logger.Info("attempting strategy",
			zap.String("job_id", job.ID),
			zap.String("strategy", s.Name()))

		err := s.Attempt(ctx, job, resumePath)
		if err == nil {
			out := Outcome{
				Status:   types.StatusApplied,
				Strategy: s.Name(),
				Notes:    joinAttempts(attempts, fmt.Sprintf("%s: submitted", s.Name())),
			}
			return out, e.record(job, rec, resumePath, out)
		}

		if Blocking(err) {
			e.logger.Warn("strategy blocked",
				zap.String("job_id", job.ID),
				zap.String("strategy", s.Name()),
				zap.Error(err))
			out := Outcome{
				Status:   types.StatusManualRequired,
				Strategy: s.Name(),
				Notes:    joinAttempts(attempts, err.Error()),
			}
			return out, e.record(job, rec, resumePath, out)
		}

		if !Retryable(err) {
			if ctx.Err() != nil {
				return Outcome{}, ctx.Err()
			}
			// Unexpected errors are treated as retryable so one flaky
			// strategy cannot sink a job the next one could land.
			e.logger.Warn("strategy returned unclassified error",
				zap.String("strategy", s.Name()),
				zap.Error(err))
		}
		attempts = append(attempts, err.Error())
	}

	out := Outcome{
		Status: types.StatusFailed,
		Notes:  joinAttempts(attempts, "all strategies exhausted"),
	}
	return out, e.record(job, rec, resumePath, out)
}

// chainFor selects the strategies applicable to the job. LinkedIn-hosted jobs
// get the full chain; external application pages skip the LinkedIn-only
// in-page flow.
func (e *Engine) chainFor(job types.JobListing) []Strategy {
	if job.IsLinkedIn() {
		return e.strategies
	}
	out := make([]Strategy, 0, len(e.strategies))
	for _, s := range e.strategies {
		if s.Name() == StrategyEasyApply {
			continue
		}
		out = append(out, s)
	}
	return out
}

// record performs the single tracker upsert for this invocation.
func (e *Engine) record(job types.JobListing, rec types.TrackerRecord, resumePath string, out Outcome) error {
	rec.JobID = job.ID
	rec.Status = out.Status
	rec.Strategy = out.Strategy
	rec.Notes = out.Notes
	rec.ResumePath = resumePath
	rec.LastUpdated = e.now()
	if out.Status == types.StatusApplied {
		rec.AppliedAt = e.now()
	}
	if err := e.store.Upsert(rec); err != nil {
		return fmt.Errorf("recording outcome for %s: %w", job.ID, err)
	}
	e.logger.Info("application outcome",
		zap.String("job_id", job.ID),
		zap.String("status", string(out.Status)),
		zap.String("strategy", out.Strategy))
	return nil
}

func joinAttempts(attempts []string, last string) string {
	if len(attempts) == 0 {
		return last
	}
	return strings.Join(append(attempts, last), " | ")
}
