package engine

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sekbote/job-applier/internal/browser"
	"github.com/sekbote/job-applier/internal/types"
)

// maxEasyApplySteps bounds the multi-step modal walk. LinkedIn Easy Apply
// flows are rarely longer than five screens in practice.
const maxEasyApplySteps = 10

// EasyApply drives LinkedIn's in-page Easy Apply modal. Only applicable to
// jobs hosted on LinkedIn.
type EasyApply struct {
	session *browser.Session
	profile *types.Profile
	logger  *zap.Logger
}

// NewEasyApply creates the Easy Apply strategy.
func NewEasyApply(session *browser.Session, profile *types.Profile, logger *zap.Logger) *EasyApply {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EasyApply{session: session, profile: profile, logger: logger}
}

func (s *EasyApply) Name() string { return StrategyEasyApply }

// Attempt opens the job page and walks the Easy Apply modal. A missing Easy
// Apply button is retryable; captcha or auth wall anywhere in the flow is
// blocking.
func (s *EasyApply) Attempt(ctx context.Context, job types.JobListing, resumePath string) error {
	if err := s.session.Navigate(ctx, job.ApplyURL); err != nil {
		return &RetryableError{Strategy: s.Name(), Message: "page load failed", Cause: err}
	}
	if err := s.checkBlocked(ctx); err != nil {
		return err
	}

	if err := s.session.ClickButton(ctx, "Easy Apply"); err != nil {
		return &RetryableError{Strategy: s.Name(), Message: "no easy apply button", Cause: err}
	}
	time.Sleep(2 * time.Second)

	for step := 0; step < maxEasyApplySteps; step++ {
		if err := s.checkBlocked(ctx); err != nil {
			return err
		}

		// Best effort per screen: attach the resume and fill whatever
		// profile fields are asked for. Absent fields are not errors.
		_ = s.session.UploadResume(ctx, resumePath)
		s.fillProfileFields(ctx)

		if s.clickAny(ctx, "Submit application", "Submit") {
			time.Sleep(3 * time.Second)
			return s.confirmSubmitted(ctx)
		}
		if s.clickAny(ctx, "Review") {
			continue
		}
		if s.clickAny(ctx, "Next", "Continue") {
			continue
		}
		return &RetryableError{Strategy: s.Name(), Message: "modal stalled, no advance button"}
	}
	return &RetryableError{Strategy: s.Name(), Message: "modal did not finish within step limit"}
}

func (s *EasyApply) checkBlocked(ctx context.Context) error {
	if s.session.CaptchaDetected(ctx) {
		return &BlockingError{Strategy: s.Name(), Reason: "captcha challenge"}
	}
	if s.session.AuthWallDetected(ctx) {
		return &BlockingError{Strategy: s.Name(), Reason: "auth wall"}
	}
	return nil
}

func (s *EasyApply) clickAny(ctx context.Context, labels ...string) bool {
	for _, label := range labels {
		if err := s.session.ClickButton(ctx, label); err == nil {
			time.Sleep(2 * time.Second)
			return true
		}
	}
	return false
}

// fillProfileFields answers the common screening inputs from the extracted
// profile. Unmatched labels are left alone for later screens.
func (s *EasyApply) fillProfileFields(ctx context.Context) {
	if s.profile == nil {
		return
	}
	fields := map[string]string{
		"email":        s.profile.Email,
		"phone":        s.profile.Phone,
		"first name":   s.profile.FirstName(),
		"last name":    s.profile.LastName(),
		"city":         s.profile.Location,
		"linkedin":     s.profile.LinkedInURL,
		"years of exp": formatYears(s.profile.YearsOfExperience),
	}
	for label, value := range fields {
		if value == "" {
			continue
		}
		if err := s.session.FillByLabel(ctx, label, value); err == nil {
			s.logger.Debug("filled modal field", zap.String("label", label))
		}
	}
}

// confirmSubmitted requires a positive confirmation signal. The modal closing
// without one still counts as success; anything else does not.
func (s *EasyApply) confirmSubmitted(ctx context.Context) error {
	text, err := s.session.BodyText(ctx)
	if err == nil {
		lower := strings.ToLower(text)
		for _, phrase := range []string{"application sent", "application submitted", "your application was sent"} {
			if strings.Contains(lower, phrase) {
				return nil
			}
		}
	}
	open, err := s.session.ElementExists(ctx, ".jobs-easy-apply-modal, div[data-test-modal]")
	if err == nil && !open {
		return nil
	}
	return &RetryableError{Strategy: s.Name(), Message: "no submission confirmation"}
}
