package types

import "time"

// ScoreResult is the outcome of matching a resume against a single job
// description. Produced at most once per job per run.
type ScoreResult struct {
	JobID           string   `json:"job_id"`
	Score           int      `json:"score"` // 0-100
	Strengths       []string `json:"strengths"`
	Gaps            []string `json:"gaps"`
	MissingKeywords []string `json:"keywords_missing"`
	Recommendation  string   `json:"recommendation"`
}

// Clamp forces the score into the 0-100 range.
func (s *ScoreResult) Clamp() {
	if s.Score < 0 {
		s.Score = 0
	}
	if s.Score > 100 {
		s.Score = 100
	}
}

// TailoredResume points at a rendered resume PDF produced for one job.
type TailoredResume struct {
	JobID       string    `json:"job_id"`
	FilePath    string    `json:"file_path"`
	GeneratedAt time.Time `json:"generated_at"`
}
