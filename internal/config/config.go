// Package config loads service settings and per-run configuration files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/recruiting-agent/internal/types"
)

// Config represents a workflow run configuration loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Job description source
	Job    string `json:"job,omitempty"`     // Path to job description text file
	JobURL string `json:"job_url,omitempty"` // URL to fetch the job posting from

	// Workflow input
	JobTitle      string `json:"job_title,omitempty"`
	CompanyName   string `json:"company_name,omitempty"`
	Department    string `json:"department,omitempty"`
	SalaryFloor   int    `json:"salary_floor,omitempty"`
	SalaryCeiling int    `json:"salary_ceiling,omitempty"`

	// Behavior
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key
	UseBrowser  bool   `json:"use_browser,omitempty"`  // Use headless browser for SPA job boards
	Verbose     bool   `json:"verbose,omitempty"`      // Print the full workflow summary
	Strict      bool   `json:"strict,omitempty"`       // Skip the job parser when input validation fails
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL for run history
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
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
// Required fields are checked by the CLI after merging flags.
func (c *Config) Validate() error {
	if c.Job != "" && c.JobURL != "" {
		return fmt.Errorf("config error: 'job' and 'job_url' are mutually exclusive")
	}

	if c.SalaryFloor < 0 {
		return fmt.Errorf("config error: 'salary_floor' must be non-negative")
	}
	if c.SalaryCeiling < 0 {
		return fmt.Errorf("config error: 'salary_ceiling' must be non-negative")
	}

	if c.Job != "" {
		if _, err := os.Stat(c.Job); os.IsNotExist(err) {
			return fmt.Errorf("config error: job file not found: %s", c.Job)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// Config file values act as defaults for CLI flags this way.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Job == "" {
		result.Job = defaults.Job
	}
	if result.JobURL == "" {
		result.JobURL = defaults.JobURL
	}
	if result.JobTitle == "" {
		result.JobTitle = defaults.JobTitle
	}
	if result.CompanyName == "" {
		result.CompanyName = defaults.CompanyName
	}
	if result.Department == "" {
		result.Department = defaults.Department
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	if result.SalaryFloor == 0 {
		result.SalaryFloor = defaults.SalaryFloor
	}
	if result.SalaryCeiling == 0 {
		result.SalaryCeiling = defaults.SalaryCeiling
	}

	// Bools cannot distinguish unset from false, so CLI flags always win.

	return result
}

// JobConfig converts the run configuration into a job configuration for
// the given description text.
func (c *Config) JobConfig(description string) types.JobConfig {
	return types.JobConfig{
		JobTitle:       c.JobTitle,
		JobDescription: description,
		CompanyName:    c.CompanyName,
		Department:     c.Department,
		SalaryFloor:    c.SalaryFloor,
		SalaryCeiling:  c.SalaryCeiling,
	}
}
