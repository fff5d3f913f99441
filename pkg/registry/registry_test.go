package registry

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelctx/mcp-client-go/pkg/client"
	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
	"github.com/modelctx/mcp-client-go/pkg/protocol"
	"github.com/modelctx/mcp-client-go/pkg/transport"
)

// fakeTransport answers scripted responses per method
type fakeTransport struct {
	mu        sync.Mutex
	responses map[string]json.RawMessage
	errs      map[string]error
	stopErr   error
	stop      chan struct{}
	stopOnce  sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		responses: map[string]json.RawMessage{
			protocol.MethodInitialize: json.RawMessage(`{
				"protocolVersion": "2024-11-05",
				"capabilities": {},
				"serverInfo": {"name": "fake", "version": "1.0.0"}
			}`),
			protocol.MethodPing: json.RawMessage(`{}`),
		},
		errs: map[string]error{},
		stop: make(chan struct{}),
	}
}

func (f *fakeTransport) Initialize(context.Context) error { return nil }

func (f *fakeTransport) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.stop:
		return nil
	}
}

func (f *fakeTransport) Stop(context.Context) error {
	f.stopOnce.Do(func() { close(f.stop) })
	return f.stopErr
}

func (f *fakeTransport) SendRequest(_ context.Context, method string, _ interface{}) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[method]; err != nil {
		return nil, err
	}
	if resp := f.responses[method]; resp != nil {
		return resp, nil
	}
	return nil, mcperrors.APIError(int(protocol.MethodNotFound), "method not found", method)
}

func (f *fakeTransport) SendNotification(context.Context, string, interface{}) error { return nil }
func (f *fakeTransport) RegisterNotificationHandler(string, transport.NotificationHandler) {
}
func (f *fakeTransport) GenerateID() string { return "fake-1" }

func (f *fakeTransport) setResponse(method, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[method] = json.RawMessage(body)
}

func (f *fakeTransport) setError(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[method] = err
}

func connectFake(t *testing.T, r *Registry, name string) *fakeTransport {
	t.Helper()
	f := newFakeTransport()
	c := client.NewWithTransport(f)
	require.NoError(t, r.ConnectClient(context.Background(), name, c))
	return f
}

func TestConnectDuplicateNameRejected(t *testing.T) {
	r := New()
	defer r.Close(context.Background())

	first := connectFake(t, r, "local")
	first.setResponse(protocol.MethodListTools, `{"tools":[{"name":"first","inputSchema":{}}]}`)

	second := client.NewWithTransport(newFakeTransport())
	err := r.ConnectClient(context.Background(), "local", second)
	require.Error(t, err)
	assert.True(t, mcperrors.IsConfig(err))

	// The first session is retained
	assert.Equal(t, []string{"local"}, r.Names())
	tools := r.Tools(context.Background())
	require.Len(t, tools, 1)
	require.Len(t, tools[0].Tools, 1)
	assert.Equal(t, "first", tools[0].Tools[0].Name)
}

func TestConnectEmptyName(t *testing.T) {
	r := New()
	err := r.ConnectClient(context.Background(), "", client.NewWithTransport(newFakeTransport()))
	require.Error(t, err)
	assert.True(t, mcperrors.IsConfig(err))
}

func TestConnectFailedHandshakeLeavesRegistryUnchanged(t *testing.T) {
	r := New()
	defer r.Close(context.Background())

	f := newFakeTransport()
	f.setError(protocol.MethodInitialize, mcperrors.ConnectionClosed("stdio", errors.New("EOF")))

	err := r.ConnectClient(context.Background(), "dead", client.NewWithTransport(f))
	require.Error(t, err)
	assert.True(t, mcperrors.IsConnection(err))
	assert.Zero(t, r.Len())

	_, err = r.Get("dead")
	require.Error(t, err)
	assert.True(t, mcperrors.IsNotFound(err))
}

func TestToolsAggregationOrder(t *testing.T) {
	r := New()
	defer r.Close(context.Background())

	a := connectFake(t, r, "alpha")
	b := connectFake(t, r, "beta")
	a.setResponse(protocol.MethodListTools, `{"tools":[{"name":"a1","inputSchema":{}}]}`)
	b.setResponse(protocol.MethodListTools, `{"tools":[{"name":"b1","inputSchema":{}},{"name":"b2","inputSchema":{}}]}`)

	tools := r.Tools(context.Background())
	require.Len(t, tools, 2)
	assert.Equal(t, "alpha", tools[0].Server)
	assert.Equal(t, "beta", tools[1].Server)
	assert.Len(t, tools[1].Tools, 2)
}

func TestToolsSkipsUnreachableServer(t *testing.T) {
	r := New()
	defer r.Close(context.Background())

	good := connectFake(t, r, "good")
	bad := connectFake(t, r, "bad")
	good.setResponse(protocol.MethodListTools, `{"tools":[{"name":"works","inputSchema":{}}]}`)
	bad.setError(protocol.MethodListTools, mcperrors.ConnectionClosed("sse", errors.New("stream gone")))

	// The aggregate silently skips the unreachable server
	tools := r.Tools(context.Background())
	require.Len(t, tools, 1)
	assert.Equal(t, "good", tools[0].Server)

	// A direct operation against it surfaces the connection error
	bad.setError(protocol.MethodListResources, mcperrors.ConnectionClosed("sse", errors.New("stream gone")))
	_, _, err := r.ListResources(context.Background(), "bad")
	require.Error(t, err)
	assert.True(t, mcperrors.IsConnection(err))
}

func TestScopedOperationsUnknownServer(t *testing.T) {
	r := New()
	defer r.Close(context.Background())
	connectFake(t, r, "only")

	_, err := r.CallTool(context.Background(), "ghost", "add", nil)
	require.Error(t, err)
	assert.True(t, mcperrors.IsNotFound(err))

	_, err = r.GetPrompt(context.Background(), "ghost", "greet", nil)
	assert.True(t, mcperrors.IsNotFound(err))

	_, err = r.ReadResource(context.Background(), "ghost", "file:///x")
	assert.True(t, mcperrors.IsNotFound(err))

	err = r.SubscribeResource(context.Background(), "ghost", "file:///x")
	assert.True(t, mcperrors.IsNotFound(err))
}

func TestCallToolDelegates(t *testing.T) {
	r := New()
	defer r.Close(context.Background())

	f := connectFake(t, r, "calc")
	f.setResponse(protocol.MethodCallTool, `{"content":[{"type":"text","text":"12"}]}`)

	result, err := r.CallTool(context.Background(), "calc", "add", map[string]int{"a": 5, "b": 7})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "12", result.Content[0].Text)
}

func TestSubscribeRoundTripPreservesContent(t *testing.T) {
	r := New()
	defer r.Close(context.Background())

	f := connectFake(t, r, "files")
	const body = `{"contents":[{"uri":"file:///a.txt","text":"stable"}]}`
	f.setResponse(protocol.MethodReadResource, body)
	f.setResponse(protocol.MethodSubscribeResource, `{}`)
	f.setResponse(protocol.MethodUnsubscribeResource, `{}`)

	ctx := context.Background()
	before, err := r.ReadResource(ctx, "files", "file:///a.txt")
	require.NoError(t, err)

	require.NoError(t, r.SubscribeResource(ctx, "files", "file:///a.txt"))
	require.NoError(t, r.UnsubscribeResource(ctx, "files", "file:///a.txt"))

	after, err := r.ReadResource(ctx, "files", "file:///a.txt")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCloseBestEffort(t *testing.T) {
	r := New()

	failing := newFakeTransport()
	failing.stopErr = errors.New("unclean shutdown")
	require.NoError(t, r.ConnectClient(context.Background(), "flaky", client.NewWithTransport(failing)))

	clean := connectFake(t, r, "clean")

	err := r.Close(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unclean shutdown")

	// The second session was still closed despite the first failure
	select {
	case <-clean.stop:
	default:
		t.Fatal("clean session was not stopped")
	}

	assert.Zero(t, r.Len())
}

func TestBoundTools(t *testing.T) {
	r := New()
	defer r.Close(context.Background())

	f := connectFake(t, r, "calc")
	f.setResponse(protocol.MethodListTools, `{"tools":[{"name":"add","description":"integer sum","inputSchema":{"type":"object"}}]}`)
	f.setResponse(protocol.MethodCallTool, `{"content":[{"type":"text","text":"12"}]}`)

	bound := r.BoundTools(context.Background())
	require.Len(t, bound, 1)
	assert.Equal(t, "calc", bound[0].Server)
	assert.Equal(t, "add", bound[0].Name)
	assert.Equal(t, "integer sum", bound[0].Description)

	result, err := bound[0].Call(context.Background(), map[string]int{"a": 5, "b": 7})
	require.NoError(t, err)
	assert.Equal(t, "12", result.Content[0].Text)
}

func TestBoundToolRejectsMissingRequiredArgs(t *testing.T) {
	r := New()
	defer r.Close(context.Background())

	f := connectFake(t, r, "calc")
	f.setResponse(protocol.MethodListTools,
		`{"tools":[{"name":"add","inputSchema":{"type":"object","required":["a","b"]}}]}`)

	bound := r.BoundTools(context.Background())
	require.Len(t, bound, 1)

	_, err := bound[0].Call(context.Background(), map[string]int{"a": 5})
	require.Error(t, err)
	assert.True(t, mcperrors.IsData(err))
	assert.Contains(t, err.Error(), `"b"`)
}
