package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSchema(t *testing.T) {
	info, err := GetSchema()
	require.NoError(t, err)

	var catalogSchema map[string]interface{}
	require.NoError(t, json.Unmarshal(info.Schema, &catalogSchema))
	assert.Equal(t, "Calculator catalog", catalogSchema["title"])

	require.NotEmpty(t, info.Operators)
	assert.Equal(t, "*", info.Operators[0].Symbol)
	assert.Equal(t, "NOT", info.Operators[len(info.Operators)-1].Symbol)
	assert.Len(t, info.Types, 4)
}
