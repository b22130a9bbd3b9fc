package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sekbote/job-applier/internal/types"
)

// AgentVerdict is the structured result an automation agent reports back.
type AgentVerdict struct {
	Applied bool   `json:"applied"`
	Captcha bool   `json:"captcha"`
	Reason  string `json:"reason"`
}

// AgentRunner executes an external browser-automation agent against a job
// application page and returns its verdict.
type AgentRunner func(ctx context.Context, job types.JobListing, resumePath string) (*AgentVerdict, error)

// AgentBrowser delegates the application to an external automation agent.
type AgentBrowser struct {
	run     AgentRunner
	timeout time.Duration
	logger  *zap.Logger
}

// NewAgentBrowser creates the agent strategy. A nil runner falls back to
// shelling out to an agent CLI found on PATH.
func NewAgentBrowser(run AgentRunner, logger *zap.Logger) *AgentBrowser {
	if logger == nil {
		logger = zap.NewNop()
	}
	if run == nil {
		run = cliAgentRunner
	}
	return &AgentBrowser{run: run, timeout: 10 * time.Minute, logger: logger}
}

func (s *AgentBrowser) Name() string { return StrategyAgentBrowser }

// Attempt hands the job to the agent. A missing or timed-out agent is
// retryable; an agent-reported captcha is blocking.
func (s *AgentBrowser) Attempt(ctx context.Context, job types.JobListing, resumePath string) error {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	verdict, err := s.run(runCtx, job, resumePath)
	if err != nil {
		return &RetryableError{Strategy: s.Name(), Message: "agent run failed", Cause: err}
	}
	if verdict.Captcha {
		return &BlockingError{Strategy: s.Name(), Reason: "agent reported captcha: " + verdict.Reason}
	}
	if !verdict.Applied {
		return &RetryableError{Strategy: s.Name(), Message: "agent did not complete: " + verdict.Reason}
	}
	s.logger.Info("agent completed application", zap.String("job_id", job.ID))
	return nil
}

// cliAgentRunner shells out to a `browser-agent` binary on PATH. The agent
// prints a JSON verdict as its last output line.
func cliAgentRunner(ctx context.Context, job types.JobListing, resumePath string) (*AgentVerdict, error) {
	bin, err := exec.LookPath("browser-agent")
	if err != nil {
		return nil, fmt.Errorf("no agent binary on PATH: %w", err)
	}

	task := fmt.Sprintf("Apply to the job %q at %s using the resume at %s. Report whether the application was submitted.",
		job.Title, job.ApplyURL, resumePath)
	out, err := exec.CommandContext(ctx, bin, "--task", task, "--output", "json").Output()
	if err != nil {
		return nil, fmt.Errorf("agent exited: %w", err)
	}

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	var verdict AgentVerdict
	if err := json.Unmarshal([]byte(last), &verdict); err != nil {
		return nil, fmt.Errorf("unparseable agent verdict %q: %w", last, err)
	}
	return &verdict, nil
}
