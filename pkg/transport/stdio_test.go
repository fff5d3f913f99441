package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
	"github.com/modelctx/mcp-client-go/pkg/protocol"
	"github.com/modelctx/mcp-client-go/pkg/utils"
)

func TestStdioInitializeBadCommand(t *testing.T) {
	tr := newStdioTransport(Config{Type: TypeStdio, Command: "/nonexistent/server-bin"})
	err := tr.Initialize(context.Background())
	require.Error(t, err)
	assert.True(t, mcperrors.IsConnection(err))
}

func TestStdioLifecycle(t *testing.T) {
	leaks := utils.NewGoroutineLeakDetector(t)
	leaks.Start()
	defer leaks.Check()

	tr := newStdioTransport(Config{Type: TypeStdio, Command: "cat"})
	ctx := context.Background()

	require.NoError(t, tr.Initialize(ctx))
	// Initialize is idempotent
	require.NoError(t, tr.Initialize(ctx))

	startDone := make(chan error, 1)
	go func() { startDone <- tr.Start(ctx) }()

	// cat echoes our request back verbatim. The echo looks like a
	// server-initiated request, so the transport answers it with
	// method-not-found, cat echoes that answer, and it lands on our
	// pending request as a server error.
	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := tr.SendRequest(reqCtx, protocol.MethodPing, nil)
	require.Error(t, err)
	assert.True(t, mcperrors.IsAPI(err))

	require.NoError(t, tr.Stop(ctx))
	// Stop is idempotent
	require.NoError(t, tr.Stop(ctx))

	select {
	case err := <-startDone:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestStdioStartBeforeInitialize(t *testing.T) {
	tr := newStdioTransport(Config{Type: TypeStdio, Command: "cat"})
	err := tr.Start(context.Background())
	require.Error(t, err)
	assert.True(t, mcperrors.IsState(err))
}

func TestStdioSendAfterStop(t *testing.T) {
	tr := newStdioTransport(Config{Type: TypeStdio, Command: "cat"})
	ctx := context.Background()

	require.NoError(t, tr.Initialize(ctx))
	go func() { _ = tr.Start(ctx) }()
	require.NoError(t, tr.Stop(ctx))

	err := tr.writeMessage([]byte(`{}`))
	require.Error(t, err)
	assert.True(t, mcperrors.IsConnection(err))
}
