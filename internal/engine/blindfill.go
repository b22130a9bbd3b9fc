package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sekbote/job-applier/internal/browser"
	"github.com/sekbote/job-applier/internal/types"
)

// fieldSpec maps a profile value to the label vocabulary that identifies it
// on application forms.
type fieldSpec struct {
	keywords []string
	value    func(p *types.Profile) string
}

var fieldSpecs = []fieldSpec{
	{[]string{"first name", "given name"}, func(p *types.Profile) string { return p.FirstName() }},
	{[]string{"last name", "family name", "surname"}, func(p *types.Profile) string { return p.LastName() }},
	{[]string{"full name", "your name", "name"}, func(p *types.Profile) string { return p.FullName }},
	{[]string{"email", "e-mail"}, func(p *types.Profile) string { return p.Email }},
	{[]string{"phone", "mobile", "telephone"}, func(p *types.Profile) string { return p.Phone }},
	{[]string{"linkedin"}, func(p *types.Profile) string { return p.LinkedInURL }},
	{[]string{"github"}, func(p *types.Profile) string { return p.GitHubURL }},
	{[]string{"portfolio", "website", "personal site"}, func(p *types.Profile) string { return p.PortfolioURL }},
	{[]string{"location", "city", "address"}, func(p *types.Profile) string { return p.Location }},
	{[]string{"work authorization", "authorized to work", "visa", "sponsorship"}, func(p *types.Profile) string { return p.WorkAuthorization }},
	{[]string{"years of experience", "experience (years)", "how many years"}, func(p *types.Profile) string { return formatYears(p.YearsOfExperience) }},
}

// BlindFill parses the form HTML and fills fields whose labels match a fixed
// vocabulary. It only submits when every required visible field was matched
// and filled; a partially understood form goes to manual review instead of
// being submitted half-empty.
type BlindFill struct {
	session *browser.Session
	profile *types.Profile
	logger  *zap.Logger
}

// NewBlindFill creates the blind-fill strategy.
func NewBlindFill(session *browser.Session, profile *types.Profile, logger *zap.Logger) *BlindFill {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlindFill{session: session, profile: profile, logger: logger}
}

func (s *BlindFill) Name() string { return StrategyBlindFill }

func (s *BlindFill) Attempt(ctx context.Context, job types.JobListing, resumePath string) error {
	if err := s.session.Navigate(ctx, job.ApplyURL); err != nil {
		return &RetryableError{Strategy: s.Name(), Message: "page load failed", Cause: err}
	}
	if s.session.CaptchaDetected(ctx) {
		return &BlockingError{Strategy: s.Name(), Reason: "captcha challenge"}
	}

	html, err := s.session.FormHTML(ctx)
	if err != nil {
		return &RetryableError{Strategy: s.Name(), Message: "reading form", Cause: err}
	}

	fields, err := parseFormFields(html)
	if err != nil {
		return &RetryableError{Strategy: s.Name(), Message: "parsing form", Cause: err}
	}
	if len(fields) == 0 {
		return &RetryableError{Strategy: s.Name(), Message: "no fillable fields found"}
	}

	var unmatched []string
	filled := 0
	for _, f := range fields {
		value := matchField(f.label, s.profile)
		if value == "" {
			if f.fileInput {
				if err := s.session.UploadResume(ctx, resumePath); err == nil {
					filled++
					continue
				}
			}
			if f.required {
				unmatched = append(unmatched, f.label)
			}
			continue
		}
		if err := s.session.FillByLabel(ctx, f.label, value); err != nil {
			if f.required {
				unmatched = append(unmatched, f.label)
			}
			continue
		}
		filled++
	}

	if len(unmatched) > 0 {
		return &BlockingError{
			Strategy: s.Name(),
			Reason:   fmt.Sprintf("unfillable required fields: %s", strings.Join(unmatched, ", ")),
		}
	}
	if filled == 0 {
		return &RetryableError{Strategy: s.Name(), Message: "nothing matched the field vocabulary"}
	}

	if err := s.session.ClickButton(ctx, "Submit"); err != nil {
		if err := s.session.ClickButton(ctx, "Apply"); err != nil {
			return &RetryableError{Strategy: s.Name(), Message: "no submit control", Cause: err}
		}
	}
	time.Sleep(3 * time.Second)

	text, err := s.session.BodyText(ctx)
	if err == nil {
		lower := strings.ToLower(text)
		for _, phrase := range []string{"thank you", "application received", "application submitted", "successfully"} {
			if strings.Contains(lower, phrase) {
				return nil
			}
		}
	}
	return &RetryableError{Strategy: s.Name(), Message: "no submission confirmation"}
}

// formField is one visible input described by the page markup.
type formField struct {
	label     string
	required  bool
	fileInput bool
}

// parseFormFields extracts labeled inputs from the form HTML.
func parseFormFields(html string) ([]formField, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	labelFor := map[string]string{}
	doc.Find("label[for]").Each(func(_ int, sel *goquery.Selection) {
		id, _ := sel.Attr("for")
		labelFor[id] = strings.TrimSpace(sel.Text())
	})

	var fields []formField
	doc.Find("input, textarea, select").Each(func(_ int, sel *goquery.Selection) {
		typ, _ := sel.Attr("type")
		switch typ {
		case "hidden", "submit", "button":
			return
		}

		label := ""
		if id, ok := sel.Attr("id"); ok {
			label = labelFor[id]
		}
		if label == "" {
			label, _ = sel.Attr("placeholder")
		}
		if label == "" {
			label, _ = sel.Attr("aria-label")
		}
		if label == "" {
			label, _ = sel.Attr("name")
		}
		if label == "" {
			return
		}

		_, required := sel.Attr("required")
		if !required {
			if v, ok := sel.Attr("aria-required"); ok && v == "true" {
				required = true
			}
		}
		fields = append(fields, formField{
			label:     strings.TrimSpace(label),
			required:  required,
			fileInput: typ == "file",
		})
	})
	return fields, nil
}

// matchField returns the profile value for a label, using case-insensitive
// substring match first and token overlap as the fuzzy fallback.
func matchField(label string, p *types.Profile) string {
	if p == nil {
		return ""
	}
	lower := strings.ToLower(label)
	for _, spec := range fieldSpecs {
		for _, kw := range spec.keywords {
			if strings.Contains(lower, kw) {
				return spec.value(p)
			}
		}
	}
	labelTokens := tokenize(lower)
	for _, spec := range fieldSpecs {
		for _, kw := range spec.keywords {
			if tokenOverlap(labelTokens, tokenize(kw)) {
				return spec.value(p)
			}
		}
	}
	return ""
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}

// tokenOverlap reports whether every keyword token appears in the label.
func tokenOverlap(label, keyword []string) bool {
	if len(keyword) == 0 {
		return false
	}
	for _, kt := range keyword {
		found := false
		for _, lt := range label {
			if lt == kt {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func formatYears(years float64) string {
	if years <= 0 {
		return ""
	}
	if years == float64(int(years)) {
		return strconv.Itoa(int(years))
	}
	return strconv.FormatFloat(years, 'f', 1, 64)
}
