package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{
		"role": "Backend Engineer",
		"platforms": ["linkedin", "indeed"],
		"max_jobs": 3,
		"min_score": 70,
		"template": "modern"
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", cfg.Role)
	assert.Equal(t, []string{"linkedin", "indeed"}, cfg.Platforms)
	assert.Equal(t, 3, cfg.MaxJobs)
	assert.Equal(t, 70, cfg.MinScore)
	assert.Equal(t, "modern", cfg.Template)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := writeConfig(t, `{not json`)
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty is valid", Config{}, false},
		{"valid platforms", Config{Platforms: []string{"linkedin", "glassdoor"}}, false},
		{"unknown platform", Config{Platforms: []string{"monster"}}, true},
		{"score too high", Config{MinScore: 101}, true},
		{"negative max jobs", Config{MaxJobs: -1}, true},
		{"unknown template", Config{Template: "fancy"}, true},
		{"delay inverted", Config{MinDelay: 5, MaxDelay: 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateMissingResume(t *testing.T) {
	cfg := Config{BaseResume: filepath.Join(t.TempDir(), "nope.pdf")}
	assert.Error(t, cfg.Validate())

	resume := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(resume, []byte("experience"), 0o644))
	cfg = Config{BaseResume: resume}
	assert.NoError(t, cfg.Validate())
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{Role: "Data Engineer", MinScore: 80}
	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, "Data Engineer", merged.Role, "explicit value wins")
	assert.Equal(t, 80, merged.MinScore)
	assert.Equal(t, 5, merged.MaxJobs, "default fills the gap")
	assert.Equal(t, "professional", merged.Template)
	assert.Equal(t, []string{"linkedin"}, merged.Platforms)
	assert.Equal(t, filepath.Join("data", "jobs_tracker.xlsx"), merged.TrackerPath)
}
