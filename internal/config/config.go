// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config represents the pipeline configuration that can be loaded from a JSON
// file. All fields are optional; missing values use defaults or must be
// provided via CLI flags.
type Config struct {
	// Search
	Role      string   `json:"role,omitempty" validate:"omitempty,min=2"`
	Locations []string `json:"locations,omitempty"`
	Platforms []string `json:"platforms,omitempty" validate:"omitempty,dive,oneof=linkedin indeed glassdoor"`
	DaysBack  int      `json:"days_back,omitempty" validate:"min=0"`

	// Limits
	MaxJobs  int `json:"max_jobs,omitempty" validate:"min=0"`
	MinScore int `json:"min_score,omitempty" validate:"min=0,max=100"`

	// Paths
	BaseResume  string `json:"base_resume,omitempty"`
	TrackerPath string `json:"tracker_path,omitempty"`
	ResumesDir  string `json:"resumes_dir,omitempty"`
	LogsDir     string `json:"logs_dir,omitempty"`
	Template    string `json:"template,omitempty" validate:"omitempty,oneof=professional modern classic"`

	// Browser behavior
	Headless bool    `json:"headless,omitempty"`
	MinDelay float64 `json:"min_delay,omitempty" validate:"min=0"`
	MaxDelay float64 `json:"max_delay,omitempty" validate:"min=0"`

	// Providers
	APIKey      string `json:"api_key,omitempty"`
	DatabaseURL string `json:"database_url,omitempty"`

	Verbose bool `json:"verbose,omitempty"`
}

// Load reads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Required-field checks happen after CLI flag merging, not here.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("config error: field %q failed %q validation", e.Field(), e.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.MaxDelay > 0 && c.MinDelay > c.MaxDelay {
		return fmt.Errorf("config error: 'min_delay' must not exceed 'max_delay'")
	}

	if c.BaseResume != "" {
		if _, err := os.Stat(c.BaseResume); os.IsNotExist(err) {
			return fmt.Errorf("config error: base resume not found: %s", c.BaseResume)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from
// defaults. CLI flag overrides are applied by the caller before this.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Role == "" {
		result.Role = defaults.Role
	}
	if len(result.Locations) == 0 {
		result.Locations = defaults.Locations
	}
	if len(result.Platforms) == 0 {
		result.Platforms = defaults.Platforms
	}
	if result.DaysBack == 0 {
		result.DaysBack = defaults.DaysBack
	}
	if result.MaxJobs == 0 {
		result.MaxJobs = defaults.MaxJobs
	}
	if result.MinScore == 0 {
		result.MinScore = defaults.MinScore
	}
	if result.BaseResume == "" {
		result.BaseResume = defaults.BaseResume
	}
	if result.TrackerPath == "" {
		result.TrackerPath = defaults.TrackerPath
	}
	if result.ResumesDir == "" {
		result.ResumesDir = defaults.ResumesDir
	}
	if result.LogsDir == "" {
		result.LogsDir = defaults.LogsDir
	}
	if result.Template == "" {
		result.Template = defaults.Template
	}
	if result.MinDelay == 0 {
		result.MinDelay = defaults.MinDelay
	}
	if result.MaxDelay == 0 {
		result.MaxDelay = defaults.MaxDelay
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	return result
}

// Defaults returns the built-in configuration defaults.
func Defaults() Config {
	return Config{
		Role:        "Software Engineer",
		Locations:   []string{"Remote"},
		Platforms:   []string{"linkedin"},
		DaysBack:    7,
		MaxJobs:     5,
		MinScore:    65,
		BaseResume:  filepath.Join("data", "base_resume.pdf"),
		TrackerPath: filepath.Join("data", "jobs_tracker.xlsx"),
		ResumesDir:  filepath.Join("data", "tailored_resumes"),
		LogsDir:     "logs",
		Template:    "professional",
		Headless:    true,
		MinDelay:    1.5,
		MaxDelay:    4.0,
	}
}
