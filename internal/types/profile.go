package types

import "strings"

// Education is a single education entry extracted from the resume.
type Education struct {
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}

// Profile holds the applicant information extracted from the base resume.
// Fields not present in the resume are left empty, never guessed.
type Profile struct {
	FullName          string      `json:"full_name"`
	Email             string      `json:"email"`
	Phone             string      `json:"phone"`
	LinkedInURL       string      `json:"linkedin_url,omitempty"`
	GitHubURL         string      `json:"github_url,omitempty"`
	PortfolioURL      string      `json:"portfolio_url,omitempty"`
	CurrentTitle      string      `json:"current_title,omitempty"`
	Location          string      `json:"location,omitempty"`
	YearsOfExperience float64     `json:"years_of_experience,omitempty"`
	WorkAuthorization string      `json:"work_authorization,omitempty"`
	Education         []Education `json:"education,omitempty"`
	Skills            []string    `json:"skills,omitempty"`
	Languages         []string    `json:"languages,omitempty"`
	Certifications    []string    `json:"certifications,omitempty"`
	Summary           string      `json:"summary,omitempty"`
}

// FirstName returns the first token of the full name.
func (p *Profile) FirstName() string {
	parts := strings.Fields(p.FullName)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// LastName returns the last token of the full name.
func (p *Profile) LastName() string {
	parts := strings.Fields(p.FullName)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}
