package browser

import (
	"context"
	"strings"
)

// captchaPatterns are body-text fragments that indicate a human verification
// challenge is blocking the page.
var captchaPatterns = []string{
	"verify you are human",
	"verify you're human",
	"are you a robot",
	"security check",
	"unusual activity",
	"complete the captcha",
	"complete a quick security",
	"recaptcha",
	"hcaptcha",
}

// authWallSelectors match LinkedIn's logged-out interstitials that cover
// job pages until the visitor signs in.
var authWallSelectors = []string{
	".authwall",
	"form.join-form",
	"#join-form",
	".sign-in-modal",
	"a[href*='/authwall']",
}

// CaptchaDetected reports whether the current page shows a captcha challenge.
func (s *Session) CaptchaDetected(ctx context.Context) bool {
	text, err := s.BodyText(ctx)
	if err != nil {
		return false
	}
	return containsAny(strings.ToLower(text), captchaPatterns)
}

// AuthWallDetected reports whether the current page is hidden behind a
// sign-in wall.
func (s *Session) AuthWallDetected(ctx context.Context) bool {
	loc, err := s.CurrentURL(ctx)
	if err == nil && strings.Contains(loc, "/authwall") {
		return true
	}
	for _, sel := range authWallSelectors {
		if ok, err := s.ElementExists(ctx, sel); err == nil && ok {
			return true
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
