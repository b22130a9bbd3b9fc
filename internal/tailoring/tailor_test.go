package tailoring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekbote/job-applier/internal/types"
)

func TestOutputFileName(t *testing.T) {
	tests := []struct {
		name    string
		full    string
		company string
		want    string
	}{
		{"simple", "Ada Lovelace", "Acme", "Ada_Lovelace_Acme.pdf"},
		{"company spaces kept as underscores", "Ada Lovelace", "Initech Global", "Ada_Lovelace_Initech_Global.pdf"},
		{"punctuation stripped", "Ada Lovelace", "O'Brien & Sons, Inc.", "Ada_Lovelace_OBrien_Sons_Inc.pdf"},
		{"company capped at 30 alphanumerics", "Ada Lovelace", "Extraordinarily Long Company Name Holdings", "Ada_Lovelace_Extraordinarily_Long_Company_Name.pdf"},
		{"empty name falls back", "", "Acme", "Resume_Acme.pdf"},
		{"empty company falls back", "Ada Lovelace", "", "Ada_Lovelace_Company.pdf"},
		{"symbols only company falls back", "Ada", "***", "Ada_Company.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OutputFileName(tt.full, tt.company))
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in       string
		maxAlnum int
		want     string
	}{
		{"Ada Lovelace", 0, "Ada_Lovelace"},
		{"  padded  ", 0, "padded"},
		{"Acme, Inc.", 0, "Acme_Inc"},
		{"abcdef", 4, "abcd"},
		{"a b c", 2, "a_b"},
		{"", 0, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in, tt.maxAlnum), "slugify(%q, %d)", tt.in, tt.maxAlnum)
	}
}

func testContent(t *testing.T) *resumeContent {
	t.Helper()
	var content resumeContent
	raw := `{
		"summary": "Backend engineer with seven years of Go experience.",
		"skills": ["Go", "PostgreSQL", "Kubernetes"],
		"experience": [{
			"title": "Senior Engineer",
			"company": "Initech",
			"dates": "2020 - present",
			"bullets": ["Cut p99 latency by 40%", "Led migration to Postgres 16"]
		}],
		"education": [{"degree": "BSc", "field": "CS", "institution": "UCL", "year": "2017"}],
		"projects": [{"name": "jobrunner", "bullets": ["Open source task queue"]}]
	}`
	require.NoError(t, json.Unmarshal([]byte(raw), &content))
	return &content
}

func TestRenderTemplateAllVariants(t *testing.T) {
	profile := &types.Profile{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
		Phone:    "+44 20 7946 0958",
		Location: "London",
	}
	content := testContent(t)

	for _, name := range TemplateNames() {
		t.Run(name, func(t *testing.T) {
			html, err := renderTemplate(name, profile, content)
			require.NoError(t, err)

			assert.Contains(t, html, "Ada Lovelace")
			assert.Contains(t, html, "ada@example.com")
			assert.Contains(t, html, "Backend engineer with seven years of Go experience.")
			assert.Contains(t, html, "Senior Engineer")
			assert.Contains(t, html, "Initech")
		})
	}
}

func TestRenderTemplateUnknownName(t *testing.T) {
	_, err := renderTemplate("nonexistent", &types.Profile{FullName: "Ada"}, testContent(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent")
}
