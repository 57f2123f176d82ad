package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaCommand(t *testing.T) {
	out, err := executeCommand(t, "schema")
	require.NoError(t, err)

	var output struct {
		Schema    map[string]interface{}   `json:"schema"`
		Operators []map[string]interface{} `json:"operators"`
		Types     []string                 `json:"types"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &output))

	assert.Equal(t, "Calculator catalog", output.Schema["title"])
	assert.Len(t, output.Operators, 13)
	assert.Equal(t, []string{"number", "text", "boolean", "choice"}, output.Types)
}
