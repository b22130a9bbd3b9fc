// Package tailoring rewrites the resume for a specific job and renders it to PDF.
package tailoring

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/sekbote/job-applier/internal/llm"
	"github.com/sekbote/job-applier/internal/types"
)

// TailorError represents a failure to produce a tailored resume.
type TailorError struct {
	JobID   string
	Message string
	Cause   error
}

func (e *TailorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("tailoring for %s: %s: %v", e.JobID, e.Message, e.Cause)
	}
	return fmt.Sprintf("tailoring for %s: %s", e.JobID, e.Message)
}

func (e *TailorError) Unwrap() error {
	return e.Cause
}

// Tailorer rewrites resume content for a job and renders it as a PDF.
type Tailorer interface {
	Tailor(ctx context.Context, profile *types.Profile, resumeText string, job types.JobListing, score *types.ScoreResult, templateName string) (*types.TailoredResume, error)
}

// resumeContent is the structured resume the LLM produces and the templates consume.
type resumeContent struct {
	Summary    string   `json:"summary"`
	Skills     []string `json:"skills"`
	Experience []struct {
		Title   string   `json:"title"`
		Company string   `json:"company"`
		Dates   string   `json:"dates"`
		Bullets []string `json:"bullets"`
	} `json:"experience"`
	Education []struct {
		Degree      string `json:"degree"`
		Institution string `json:"institution"`
		Year        string `json:"year"`
	} `json:"education"`
	Projects []struct {
		Name    string   `json:"name"`
		Bullets []string `json:"bullets"`
	} `json:"projects"`
}

// LLMTailorer implements Tailorer with an LLM rewrite and a chromedp PDF render.
type LLMTailorer struct {
	client    llm.Client
	renderer  *PDFRenderer
	outputDir string
	logger    *zap.Logger
}

// NewLLMTailorer creates a tailorer writing PDFs under outputDir.
func NewLLMTailorer(client llm.Client, renderer *PDFRenderer, outputDir string, logger *zap.Logger) *LLMTailorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMTailorer{client: client, renderer: renderer, outputDir: outputDir, logger: logger}
}

// Tailor rewrites the resume emphasizing the job's requirements, renders it
// through the named template, and writes the PDF to the output directory.
func (t *LLMTailorer) Tailor(ctx context.Context, profile *types.Profile, resumeText string, job types.JobListing, score *types.ScoreResult, templateName string) (*types.TailoredResume, error) {
	raw, err := t.client.GenerateJSON(ctx, tailoringPrompt(resumeText, job, score))
	if err != nil {
		return nil, &TailorError{JobID: job.ID, Message: "LLM request", Cause: err}
	}

	var content resumeContent
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return nil, &TailorError{JobID: job.ID, Message: "decoding resume JSON", Cause: err}
	}
	if content.Summary == "" && len(content.Experience) == 0 {
		return nil, &TailorError{JobID: job.ID, Message: "LLM returned an empty resume"}
	}

	html, err := renderTemplate(templateName, profile, &content)
	if err != nil {
		return nil, &TailorError{JobID: job.ID, Message: "rendering template", Cause: err}
	}

	pdf, err := t.renderer.RenderPDF(ctx, html)
	if err != nil {
		return nil, &TailorError{JobID: job.ID, Message: "printing PDF", Cause: err}
	}

	if err := os.MkdirAll(t.outputDir, 0o755); err != nil {
		return nil, &TailorError{JobID: job.ID, Message: "output dir", Cause: err}
	}
	outPath := filepath.Join(t.outputDir, OutputFileName(profile.FullName, job.Company))
	if err := os.WriteFile(outPath, pdf, 0o644); err != nil {
		return nil, &TailorError{JobID: job.ID, Message: "writing PDF", Cause: err}
	}

	t.logger.Info("tailored resume written",
		zap.String("job_id", job.ID),
		zap.String("path", outPath))

	return &types.TailoredResume{
		JobID:       job.ID,
		FilePath:    outPath,
		GeneratedAt: time.Now(),
	}, nil
}

// OutputFileName builds the PDF name as <Name_Slug>_<Company_Slug>.pdf. The
// company slug keeps alphanumerics only and is capped at 30 characters.
func OutputFileName(fullName, company string) string {
	name := slugify(fullName, 0)
	if name == "" {
		name = "Resume"
	}
	comp := slugify(company, 30)
	if comp == "" {
		comp = "Company"
	}
	return name + "_" + comp + ".pdf"
}

func slugify(s string, maxAlnum int) string {
	var sb strings.Builder
	count := 0
	lastUnderscore := true
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if maxAlnum > 0 && count >= maxAlnum {
				continue
			}
			sb.WriteRune(r)
			count++
			lastUnderscore = false
		case unicode.IsSpace(r) && !lastUnderscore:
			sb.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(sb.String(), "_")
}

func tailoringPrompt(resumeText string, job types.JobListing, score *types.ScoreResult) string {
	var focus strings.Builder
	if score != nil {
		if len(score.MissingKeywords) > 0 {
			fmt.Fprintf(&focus, "Keywords to work in naturally where truthful: %s\n", strings.Join(score.MissingKeywords, ", "))
		}
		if len(score.Gaps) > 0 {
			fmt.Fprintf(&focus, "Gaps to mitigate with adjacent experience: %s\n", strings.Join(score.Gaps, ", "))
		}
	}
	return fmt.Sprintf(`Rewrite this resume for the job below. Reorder and rephrase to emphasize relevant experience. Never invent experience, employers, or dates.

Job:
Title: %s
Company: %s
Description:
%s

%s
Resume:
%s

Return JSON:
{
  "summary": "<tailored professional summary>",
  "skills": [<skills ordered by relevance to the job>],
  "experience": [{"title": "", "company": "", "dates": "", "bullets": [<achievement bullets rewritten for this job>]}],
  "education": [{"degree": "", "institution": "", "year": ""}],
  "projects": [{"name": "", "bullets": []}]
}

Respond with the JSON object only.`,
		job.Title, job.Company, job.Description, focus.String(), resumeText)
}
