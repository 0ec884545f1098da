// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// ColumnMap maps the canonical roster columns to the header names used in the
// source spreadsheet. The original roster used Spanish headers, so every
// column name is overridable.
type ColumnMap struct {
	Name       string `json:"name,omitempty"`
	NationalID string `json:"national_id,omitempty"`
	Company    string `json:"company,omitempty"`
	Status     string `json:"status,omitempty"`
	Date       string `json:"date,omitempty"`
}

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults, environment variables
// or must be provided via CLI flags.
type Config struct {
	// Remote store
	RosterFileID   string `json:"roster_file_id,omitempty" validate:"omitempty,min=1"`
	ParentFolderID string `json:"parent_folder_id,omitempty" validate:"omitempty,min=1"`
	Worksheet      string `json:"worksheet,omitempty"` // empty means first sheet

	// Graph credentials (client-credentials flow)
	TenantID     string `json:"tenant_id,omitempty"`
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`

	// Rendering
	Template  string    `json:"template,omitempty"` // path to .docx or .html template
	DoneValue string    `json:"done_value,omitempty" validate:"omitempty,min=1"`
	Columns   ColumnMap `json:"columns,omitempty"`

	// Behavior
	Parallel       int    `json:"parallel,omitempty" validate:"omitempty,min=1,max=16"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" validate:"omitempty,min=1"`
	Verbose        bool   `json:"verbose,omitempty"`
	SummaryOut     string `json:"summary_out,omitempty"`

	// Run history persistence
	DatabaseURL string `json:"database_url,omitempty"`
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
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

// ApplyEnv fills empty credential and connection fields from environment
// variables. The names match the original deployment's .env file.
func (c *Config) ApplyEnv() {
	applyEnvString(&c.RosterFileID, "ROSTER_FILE_ID")
	applyEnvString(&c.ParentFolderID, "CERTIFICATES_FOLDER_ID")
	applyEnvString(&c.TenantID, "GRAPH_TENANT_ID")
	applyEnvString(&c.ClientID, "GRAPH_CLIENT_ID")
	applyEnvString(&c.ClientSecret, "GRAPH_CLIENT_SECRET")
	applyEnvString(&c.DatabaseURL, "DATABASE_URL")
	applyEnvString(&c.Template, "TEMPLATE_PATH")
}

func applyEnvString(dst *string, key string) {
	if *dst == "" {
		*dst = os.Getenv(key)
	}
}

// Validate checks that the configuration has valid values.
// Note: required fields are checked by the CLI after merging flag overrides,
// so this only rejects values that can never be right.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.Template != "" {
		if _, err := os.Stat(c.Template); os.IsNotExist(err) {
			return fmt.Errorf("config error: template file not found: %s", c.Template)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with unset fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Worksheet == "" {
		result.Worksheet = defaults.Worksheet
	}
	if result.Template == "" {
		result.Template = defaults.Template
	}
	if result.DoneValue == "" {
		result.DoneValue = defaults.DoneValue
	}
	if result.SummaryOut == "" {
		result.SummaryOut = defaults.SummaryOut
	}
	if result.Parallel == 0 {
		result.Parallel = defaults.Parallel
	}
	if result.TimeoutSeconds == 0 {
		result.TimeoutSeconds = defaults.TimeoutSeconds
	}

	result.Columns = result.Columns.mergeWith(defaults.Columns)

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

func (m ColumnMap) mergeWith(defaults ColumnMap) ColumnMap {
	if m.Name == "" {
		m.Name = defaults.Name
	}
	if m.NationalID == "" {
		m.NationalID = defaults.NationalID
	}
	if m.Company == "" {
		m.Company = defaults.Company
	}
	if m.Status == "" {
		m.Status = defaults.Status
	}
	if m.Date == "" {
		m.Date = defaults.Date
	}
	return m
}

// Defaults returns the built-in configuration defaults.
func Defaults() Config {
	return Config{
		DoneValue:      "done",
		Parallel:       1,
		TimeoutSeconds: 60,
		Columns: ColumnMap{
			Name:       "name",
			NationalID: "national_id",
			Company:    "company",
			Status:     "status",
			Date:       "date",
		},
	}
}
