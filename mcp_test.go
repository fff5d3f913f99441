package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
	"github.com/modelctx/mcp-client-go/pkg/transport"
)

func TestConnectMissingConfig(t *testing.T) {
	_, err := Connect(context.Background(), filepath.Join(t.TempDir(), "absent.json"), "")
	require.Error(t, err)
	assert.True(t, mcperrors.IsConfig(err))
}

func TestConnectUnknownServer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcp.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"servers": {"local": {"transport": "stdio", "command": "mcp-server"}}
	}`), 0o600))

	_, err := Connect(context.Background(), path, "remote")
	require.Error(t, err)
	assert.True(t, mcperrors.IsConfig(err))
	assert.Contains(t, err.Error(), "remote")
}

func TestConnectAllBadEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcp.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"servers": {"bad": {"transport": "websocket"}}
	}`), 0o600))

	_, err := ConnectAll(context.Background(), path)
	require.Error(t, err)
	assert.True(t, mcperrors.IsConfig(err))
}

func TestNewClientRejectsUnsupportedTransport(t *testing.T) {
	_, err := NewClient(transport.Config{Type: "http", Endpoint: "http://localhost"})
	require.Error(t, err)
	assert.True(t, mcperrors.IsConfig(err))
}
