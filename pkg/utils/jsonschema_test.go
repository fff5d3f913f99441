package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
)

type addArgs struct {
	A int `json:"a"`
	B int `json:"b"`
}

func TestSchemaFor(t *testing.T) {
	schema, err := SchemaFor[addArgs]()
	require.NoError(t, err)

	var s map[string]interface{}
	require.NoError(t, json.Unmarshal(schema, &s))
	assert.Equal(t, "object", s["type"])

	props, ok := s["properties"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
}

func TestDecodeArgsRejectsUnknownFields(t *testing.T) {
	var args addArgs
	require.NoError(t, DecodeArgs(json.RawMessage(`{"a":1,"b":2}`), &args))
	assert.Equal(t, 1, args.A)

	err := DecodeArgs(json.RawMessage(`{"a":1,"b":2,"c":3}`), &args)
	require.Error(t, err)
	assert.True(t, mcperrors.IsData(err))
}

func TestValidateRequired(t *testing.T) {
	schema := json.RawMessage(`{"type":"object","properties":{"a":{},"b":{}},"required":["a","b"]}`)

	assert.NoError(t, ValidateRequired(schema, json.RawMessage(`{"a":1,"b":2}`)))
	assert.NoError(t, ValidateRequired(nil, nil))
	assert.NoError(t, ValidateRequired(json.RawMessage(`{"type":"object"}`), nil))

	err := ValidateRequired(schema, json.RawMessage(`{"a":1}`))
	require.Error(t, err)
	assert.True(t, mcperrors.IsData(err))
	assert.Contains(t, err.Error(), `"b"`)

	err = ValidateRequired(schema, json.RawMessage(`[1,2]`))
	require.Error(t, err)
	assert.True(t, mcperrors.IsData(err))
}

func TestMergeArguments(t *testing.T) {
	merged, err := MergeArguments(
		json.RawMessage(`{"a":1,"b":1}`),
		nil,
		json.RawMessage(`{"b":2,"c":3}`),
	)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1,"b":2,"c":3}`, string(merged))

	_, err = MergeArguments(json.RawMessage(`[]`))
	require.Error(t, err)
	assert.True(t, mcperrors.IsData(err))
}
