package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacampus/certgen/internal/config"
)

// resetRunFlags undoes flag state mutated by a test so runs are independent.
func resetRunFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		runConfigPath = ""
		runCommand.Flags().VisitAll(func(f *pflag.Flag) {
			f.Changed = false
			_ = f.Value.Set(f.DefValue)
		})
	})
}

// jsonString quotes a value for embedding in a JSON literal.
func jsonString(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

func writeTemplate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "certificate.html")
	require.NoError(t, os.WriteFile(path, []byte("<html><body>{{name}}</body></html>"), 0o644))
	return path
}

func TestLoadRunConfig_Defaults(t *testing.T) {
	resetRunFlags(t)

	cfg, err := loadRunConfig(runCommand)
	require.NoError(t, err)

	assert.Equal(t, "done", cfg.DoneValue)
	assert.Equal(t, 1, cfg.Parallel)
	assert.Equal(t, 60, cfg.TimeoutSeconds)
	assert.Equal(t, "status", cfg.Columns.Status)
}

func TestLoadRunConfig_FlagOverridesConfigFile(t *testing.T) {
	resetRunFlags(t)

	template := writeTemplate(t)
	configPath := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{
		"roster_file_id": "from-file",
		"done_value": "si",
		"template": `+jsonString(template)+`
	}`), 0o644))

	runConfigPath = configPath
	require.NoError(t, runCommand.Flags().Set("roster-id", "from-flag"))

	cfg, err := loadRunConfig(runCommand)
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.RosterFileID)
	assert.Equal(t, "si", cfg.DoneValue)
	assert.Equal(t, template, cfg.Template)
}

func TestLoadRunConfig_EnvBackfill(t *testing.T) {
	resetRunFlags(t)

	t.Setenv("ROSTER_FILE_ID", "from-env")
	t.Setenv("GRAPH_TENANT_ID", "tenant-env")

	cfg, err := loadRunConfig(runCommand)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.RosterFileID)
	assert.Equal(t, "tenant-env", cfg.TenantID)
}

func TestLoadRunConfig_FlagBeatsEnv(t *testing.T) {
	resetRunFlags(t)

	t.Setenv("ROSTER_FILE_ID", "from-env")
	require.NoError(t, runCommand.Flags().Set("roster-id", "from-flag"))

	cfg, err := loadRunConfig(runCommand)
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.RosterFileID)
}

func TestLoadRunConfig_RejectsMissingTemplateFile(t *testing.T) {
	resetRunFlags(t)

	require.NoError(t, runCommand.Flags().Set("template", "/no/such/template.docx"))

	_, err := loadRunConfig(runCommand)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template file not found")
}

func TestRequireRunFields(t *testing.T) {
	full := config.Config{
		RosterFileID:   "r1",
		ParentFolderID: "p1",
		Template:       "certificate.docx",
		TenantID:       "t",
		ClientID:       "c",
		ClientSecret:   "s",
	}
	assert.NoError(t, requireRunFields(full))

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"missing roster", func(c *config.Config) { c.RosterFileID = "" }, "--roster-id"},
		{"missing parent", func(c *config.Config) { c.ParentFolderID = "" }, "--parent-id"},
		{"missing template", func(c *config.Config) { c.Template = "" }, "--template"},
		{"missing credentials", func(c *config.Config) { c.ClientSecret = "" }, "credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := full
			tt.mutate(&cfg)
			err := requireRunFields(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
