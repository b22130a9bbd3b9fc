// Package profile extracts structured applicant information from the base resume.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sekbote/job-applier/internal/llm"
	"github.com/sekbote/job-applier/internal/schemas"
	"github.com/sekbote/job-applier/internal/types"
)

const (
	cacheFileName = "profile_cache.json"
	metaFileName  = "profile_cache.meta"
)

// ExtractError represents a failure to extract a profile from the resume.
type ExtractError struct {
	Message string
	Cause   error
}

func (e *ExtractError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("profile extraction failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("profile extraction failed: %s", e.Message)
}

func (e *ExtractError) Unwrap() error {
	return e.Cause
}

// Extractor pulls a Profile out of a resume via the LLM, caching the result
// keyed by the resume's modification time.
type Extractor struct {
	client   llm.Client
	cacheDir string
	logger   *zap.Logger
}

// NewExtractor creates an Extractor that caches under cacheDir.
func NewExtractor(client llm.Client, cacheDir string, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{client: client, cacheDir: cacheDir, logger: logger}
}

// Extract returns the applicant profile for the resume at resumePath. A cached
// profile is reused as long as the resume file has not been modified since it
// was written.
func (e *Extractor) Extract(ctx context.Context, resumePath string) (*types.Profile, error) {
	info, err := os.Stat(resumePath)
	if err != nil {
		return nil, &ExtractError{Message: "resume not readable", Cause: err}
	}
	mtime := info.ModTime().Unix()

	if cached := e.loadCache(mtime); cached != nil {
		e.logger.Debug("profile cache hit", zap.String("resume", resumePath))
		return cached, nil
	}

	text, err := ReadResumeText(resumePath)
	if err != nil {
		return nil, &ExtractError{Message: "reading resume", Cause: err}
	}

	raw, err := e.client.GenerateJSON(ctx, extractionPrompt(text))
	if err != nil {
		return nil, &ExtractError{Message: "LLM request", Cause: err}
	}

	if err := schemas.ValidateProfile(raw); err != nil {
		return nil, &ExtractError{Message: "invalid profile JSON", Cause: err}
	}

	var p types.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, &ExtractError{Message: "decoding profile JSON", Cause: err}
	}
	if strings.TrimSpace(p.FullName) == "" {
		return nil, &ExtractError{Message: "profile has no full_name"}
	}

	e.saveCache(&p, mtime)
	return &p, nil
}

// loadCache returns the cached profile if the stored mtime matches, nil otherwise.
func (e *Extractor) loadCache(mtime int64) *types.Profile {
	metaRaw, err := os.ReadFile(filepath.Join(e.cacheDir, metaFileName))
	if err != nil {
		return nil
	}
	stored, err := strconv.ParseInt(strings.TrimSpace(string(metaRaw)), 10, 64)
	if err != nil || stored != mtime {
		return nil
	}

	data, err := os.ReadFile(filepath.Join(e.cacheDir, cacheFileName))
	if err != nil {
		return nil
	}
	var p types.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil
	}
	return &p
}

func (e *Extractor) saveCache(p *types.Profile, mtime int64) {
	if err := os.MkdirAll(e.cacheDir, 0o755); err != nil {
		e.logger.Warn("profile cache dir", zap.Error(err))
		return
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(filepath.Join(e.cacheDir, cacheFileName), data, 0o644); err != nil {
		e.logger.Warn("profile cache write", zap.Error(err))
		return
	}
	meta := strconv.FormatInt(mtime, 10)
	if err := os.WriteFile(filepath.Join(e.cacheDir, metaFileName), []byte(meta), 0o644); err != nil {
		e.logger.Warn("profile cache meta write", zap.Error(err))
	}
}

// ReadResumeText reads the resume file as text. Plain-text formats are read
// directly; binary formats fall back to a lossy string conversion, which is
// enough for the LLM to pick out contact details.
func ReadResumeText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := string(data)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".tex", ".html":
		return text, nil
	default:
		return stripNonPrintable(text), nil
	}
}

func stripNonPrintable(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' || (r >= 0x20 && r < 0x7f) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func extractionPrompt(resumeText string) string {
	return fmt.Sprintf(`You are extracting applicant details from a resume for use in job application forms.

Return a JSON object with these fields (use empty string, empty array, or 0 when the resume does not state a value, never guess):
- full_name, email, phone
- linkedin_url, github_url, portfolio_url
- current_title, location
- years_of_experience (number)
- work_authorization
- education (array of {degree, field, institution, year})
- skills, languages, certifications (string arrays)
- summary (2-3 sentence professional summary)

Resume:
%s

Respond with the JSON object only.`, resumeText)
}
