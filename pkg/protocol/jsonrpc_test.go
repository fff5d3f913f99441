package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	req, err := NewRequest("req_1", MethodListTools, map[string]string{"cursor": ""})
	require.NoError(t, err)

	assert.Equal(t, JSONRPCVersion, req.JSONRPC)
	assert.Equal(t, "req_1", req.ID)
	assert.Equal(t, MethodListTools, req.Method)
	assert.NotEmpty(t, req.Params)
}

func TestNewRequestNilParams(t *testing.T) {
	req, err := NewRequest(1, MethodPing, nil)
	require.NoError(t, err)
	assert.Nil(t, req.Params)

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "params")
}

func TestResponseRoundTrip(t *testing.T) {
	raw := `{"jsonrpc":"2.0","id":"req_2","result":{"tools":[{"name":"add","description":"adds"}]}}`

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	assert.Equal(t, "req_2", resp.ID)
	require.Nil(t, resp.Error)

	var result ListToolsResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Len(t, result.Tools, 1)
	assert.Equal(t, "add", result.Tools[0].Name)
}

func TestErrorResponse(t *testing.T) {
	raw := `{"jsonrpc":"2.0","id":3,"error":{"code":-32601,"message":"method not found"}}`

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, MethodNotFound, resp.Error.Code)
	assert.Contains(t, resp.Error.Error(), "method not found")
}

func TestNewNotification(t *testing.T) {
	notif, err := NewNotification(MethodInitialized, nil)
	require.NoError(t, err)

	data, err := json.Marshal(notif)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, MethodInitialized, decoded["method"])
	_, hasID := decoded["id"]
	assert.False(t, hasID, "notifications must not carry an id")
}
