package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	path := writeConfigFile(t, `{
		"roster_file_id": "01ABCDEF",
		"parent_folder_id": "01PARENT",
		"worksheet": "Sheet1",
		"columns": {"company": "compañia", "status": "certificado"}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "01ABCDEF", cfg.RosterFileID)
	assert.Equal(t, "compañia", cfg.Columns.Company)
	assert.Equal(t, "certificado", cfg.Columns.Status)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.json")
	assert.Error(t, err)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := writeConfigFile(t, `{not json`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parse config JSON")
}

func TestValidate_ParallelRange(t *testing.T) {
	cfg := Config{Parallel: 64}
	assert.Error(t, cfg.Validate())

	cfg.Parallel = 4
	assert.NoError(t, cfg.Validate())
}

func TestValidate_TemplateNotFound(t *testing.T) {
	cfg := Config{Template: "/nonexistent/plantilla.docx"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template file not found")
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{
		Columns: ColumnMap{Status: "certificado"},
	}

	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, "done", merged.DoneValue)
	assert.Equal(t, 1, merged.Parallel)
	assert.Equal(t, "certificado", merged.Columns.Status, "explicit column name survives merge")
	assert.Equal(t, "company", merged.Columns.Company, "unset column names come from defaults")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("ROSTER_FILE_ID", "01FROMENV")
	t.Setenv("GRAPH_TENANT_ID", "tenant-from-env")

	cfg := Config{RosterFileID: "01EXPLICIT"}
	cfg.ApplyEnv()

	assert.Equal(t, "01EXPLICIT", cfg.RosterFileID, "explicit value wins over env")
	assert.Equal(t, "tenant-from-env", cfg.TenantID)
}
