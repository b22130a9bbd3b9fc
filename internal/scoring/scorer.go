// Package scoring rates scraped jobs against the applicant's resume.
package scoring

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sekbote/job-applier/internal/llm"
	"github.com/sekbote/job-applier/internal/schemas"
	"github.com/sekbote/job-applier/internal/types"
)

// Scorer produces a match score for a job against the resume.
type Scorer interface {
	Score(ctx context.Context, resumeText string, job types.JobListing) (*types.ScoreResult, error)
}

// ScoreError represents a failure to score a job.
type ScoreError struct {
	JobID   string
	Message string
	Cause   error
}

func (e *ScoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("scoring %s: %s: %v", e.JobID, e.Message, e.Cause)
	}
	return fmt.Sprintf("scoring %s: %s", e.JobID, e.Message)
}

func (e *ScoreError) Unwrap() error {
	return e.Cause
}

// LLMScorer scores jobs through an LLM with schema-validated JSON output.
type LLMScorer struct {
	client llm.Client
}

// NewLLMScorer creates an LLMScorer backed by the given client.
func NewLLMScorer(client llm.Client) *LLMScorer {
	return &LLMScorer{client: client}
}

// Score asks the LLM for a 0-100 match score with strengths, gaps, and
// missing keywords. The response is validated against the score schema and
// the score is clamped into range.
func (s *LLMScorer) Score(ctx context.Context, resumeText string, job types.JobListing) (*types.ScoreResult, error) {
	raw, err := s.client.GenerateJSON(ctx, scoringPrompt(resumeText, job))
	if err != nil {
		return nil, &ScoreError{JobID: job.ID, Message: "LLM request", Cause: err}
	}

	if err := schemas.ValidateScoreResult(raw); err != nil {
		return nil, &ScoreError{JobID: job.ID, Message: "invalid score JSON", Cause: err}
	}

	var parsed struct {
		Score           int      `json:"score"`
		Strengths       []string `json:"strengths"`
		Gaps            []string `json:"gaps"`
		KeywordsMissing []string `json:"keywords_missing"`
		Recommendation  string   `json:"recommendation"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, &ScoreError{JobID: job.ID, Message: "decoding score JSON", Cause: err}
	}

	result := &types.ScoreResult{
		JobID:           job.ID,
		Score:           parsed.Score,
		Strengths:       parsed.Strengths,
		Gaps:            parsed.Gaps,
		MissingKeywords: parsed.KeywordsMissing,
		Recommendation:  parsed.Recommendation,
	}
	result.Clamp()
	return result, nil
}

func scoringPrompt(resumeText string, job types.JobListing) string {
	return fmt.Sprintf(`You are an experienced technical recruiter evaluating how well a candidate matches a job posting.

Job:
Title: %s
Company: %s
Location: %s
Description:
%s

Candidate resume:
%s

Score the match from 0 to 100 the way an ATS plus a human recruiter would: weigh required skills and experience heavily, nice-to-haves lightly. Return JSON:
{
  "score": <integer 0-100>,
  "strengths": [<candidate strengths for this role, strongest first>],
  "gaps": [<requirements the candidate does not meet, most serious first>],
  "keywords_missing": [<important keywords from the posting absent from the resume>],
  "recommendation": "<one sentence: apply, tailor first, or skip>"
}

Respond with the JSON object only.`,
		job.Title, job.Company, job.Location, job.Description, resumeText)
}
