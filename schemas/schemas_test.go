package schemas

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

func TestRunSummarySchema_ValidJSON(t *testing.T) {
	data, err := os.ReadFile("run_summary.schema.json")
	require.NoError(t, err)

	var v interface{}
	assert.NoError(t, json.Unmarshal(data, &v))
}

func TestRunSummarySchema_CompilesAsJSONSchema(t *testing.T) {
	data, err := os.ReadFile("run_summary.schema.json")
	require.NoError(t, err)

	_, err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	assert.NoError(t, err)
}
