package engine

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sekbote/job-applier/internal/browser"
	"github.com/sekbote/job-applier/internal/llm"
	"github.com/sekbote/job-applier/internal/schemas"
	"github.com/sekbote/job-applier/internal/types"
)

// formAction is one step the vision model asks the browser to perform.
type formAction struct {
	Type     string `json:"type"`
	Selector string `json:"selector"`
	Value    string `json:"value"`
}

type formPlan struct {
	Actions        []formAction `json:"actions"`
	SubmitSelector string       `json:"submit_selector"`
	NeedsHuman     bool         `json:"needs_human"`
	Reason         string       `json:"reason"`
}

// VisionFill screenshots the application page, asks a vision model for a
// schema-validated action plan, and executes it through the session.
type VisionFill struct {
	session *browser.Session
	client  llm.Client
	profile *types.Profile
	logger  *zap.Logger
}

// NewVisionFill creates the vision strategy.
func NewVisionFill(session *browser.Session, client llm.Client, profile *types.Profile, logger *zap.Logger) *VisionFill {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisionFill{session: session, client: client, profile: profile, logger: logger}
}

func (s *VisionFill) Name() string { return StrategyVisionFill }

func (s *VisionFill) Attempt(ctx context.Context, job types.JobListing, resumePath string) error {
	if err := s.session.Navigate(ctx, job.ApplyURL); err != nil {
		return &RetryableError{Strategy: s.Name(), Message: "page load failed", Cause: err}
	}
	if s.session.CaptchaDetected(ctx) {
		return &BlockingError{Strategy: s.Name(), Reason: "captcha challenge"}
	}

	png, err := s.session.Screenshot(ctx)
	if err != nil {
		return &RetryableError{Strategy: s.Name(), Message: "screenshot failed", Cause: err}
	}

	raw, err := s.client.GenerateVisionJSON(ctx, s.prompt(job), png)
	if err != nil {
		return &RetryableError{Strategy: s.Name(), Message: "vision model failed", Cause: err}
	}
	if err := schemas.ValidateFormActions(raw); err != nil {
		return &RetryableError{Strategy: s.Name(), Message: "invalid action plan", Cause: err}
	}

	var plan formPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return &RetryableError{Strategy: s.Name(), Message: "decoding action plan", Cause: err}
	}
	if plan.NeedsHuman {
		return &BlockingError{Strategy: s.Name(), Reason: "model flagged manual step: " + plan.Reason}
	}
	if len(plan.Actions) == 0 {
		return &RetryableError{Strategy: s.Name(), Message: "model produced no actions"}
	}

	for _, a := range plan.Actions {
		if err := s.execute(ctx, a, resumePath); err != nil {
			return &RetryableError{Strategy: s.Name(), Message: "action " + a.Type + " on " + a.Selector, Cause: err}
		}
	}

	if plan.SubmitSelector != "" {
		if err := s.session.ClickSelector(ctx, plan.SubmitSelector); err != nil {
			return &RetryableError{Strategy: s.Name(), Message: "submit click failed", Cause: err}
		}
	} else if err := s.session.ClickButton(ctx, "Submit"); err != nil {
		return &RetryableError{Strategy: s.Name(), Message: "no submit control", Cause: err}
	}
	time.Sleep(3 * time.Second)

	return s.confirm(ctx)
}

func (s *VisionFill) execute(ctx context.Context, a formAction, resumePath string) error {
	switch a.Type {
	case "fill", "select":
		return s.session.FillSelector(ctx, a.Selector, a.Value)
	case "check", "click":
		return s.session.ClickSelector(ctx, a.Selector)
	case "upload":
		return s.session.UploadResume(ctx, resumePath)
	default:
		s.logger.Warn("unknown action type", zap.String("type", a.Type))
		return nil
	}
}

// confirm requires explicit confirmation text after submit.
func (s *VisionFill) confirm(ctx context.Context) error {
	text, err := s.session.BodyText(ctx)
	if err != nil {
		return &RetryableError{Strategy: s.Name(), Message: "reading confirmation", Cause: err}
	}
	lower := strings.ToLower(text)
	for _, phrase := range []string{"thank you for applying", "application received", "application submitted", "application sent", "successfully submitted"} {
		if strings.Contains(lower, phrase) {
			return nil
		}
	}
	return &RetryableError{Strategy: s.Name(), Message: "no submission confirmation"}
}

func (s *VisionFill) prompt(job types.JobListing) string {
	var sb strings.Builder
	sb.WriteString("This screenshot shows a job application form for the role ")
	sb.WriteString(job.Title)
	sb.WriteString(" at ")
	sb.WriteString(job.Company)
	sb.WriteString(".\n\nApplicant details:\n")
	p := s.profile
	if p != nil {
		for _, kv := range [][2]string{
			{"Full name", p.FullName},
			{"Email", p.Email},
			{"Phone", p.Phone},
			{"Location", p.Location},
			{"LinkedIn", p.LinkedInURL},
			{"GitHub", p.GitHubURL},
			{"Work authorization", p.WorkAuthorization},
			{"Years of experience", formatYears(p.YearsOfExperience)},
		} {
			if kv[1] != "" {
				sb.WriteString(kv[0] + ": " + kv[1] + "\n")
			}
		}
	}
	sb.WriteString(`
Produce the exact steps to fill and submit this form. Return JSON:
{
  "actions": [{"type": "fill|select|check|upload|click", "selector": "<CSS selector>", "value": "<value for fill/select>"}],
  "submit_selector": "<CSS selector of the submit control, or null>",
  "needs_human": <true when a captcha, login, or unanswerable question is visible>,
  "reason": "<why needs_human, or null>"
}

Use selectors that exist in a standard HTML form (id, name, type attributes). Respond with the JSON object only.`)
	return sb.String()
}
