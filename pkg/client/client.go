// Package client implements a single-server MCP session: the initialization
// handshake, typed wrappers for the server's tool, prompt, and resource
// operations, and the session lifecycle around them.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
	"github.com/modelctx/mcp-client-go/pkg/logging"
	"github.com/modelctx/mcp-client-go/pkg/observability"
	"github.com/modelctx/mcp-client-go/pkg/pagination"
	"github.com/modelctx/mcp-client-go/pkg/protocol"
	"github.com/modelctx/mcp-client-go/pkg/transport"
)

// State is the lifecycle state of a session
type State int32

const (
	// StateUninitialized is the state before Initialize is called
	StateUninitialized State = iota
	// StateInitializing covers the handshake in flight
	StateInitializing
	// StateReady means the handshake completed and operations may proceed
	StateReady
	// StateClosed is terminal after Close
	StateClosed
	// StateFailed is terminal after a failed handshake
	StateFailed
)

// String returns the state name for errors and logs
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ServerMetadata describes a connected server, drawn from its
// initialization response and a liveness probe.
type ServerMetadata struct {
	Name            string                      `json:"name"`
	Version         string                      `json:"version"`
	ProtocolVersion string                      `json:"protocolVersion"`
	Capabilities    protocol.ServerCapabilities `json:"capabilities"`
	Instructions    string                      `json:"instructions,omitempty"`
}

// Client is a single-server MCP session. It owns its transport exclusively
// and is safe for concurrent use once Ready.
type Client struct {
	transport transport.Transport
	timeout   time.Duration
	logger    logging.Logger
	metrics   observability.MetricsProvider
	tracing   *observability.TracingProvider
	info      protocol.Implementation

	mu        sync.RWMutex
	state     State
	initRes   *protocol.InitializeResult
	startErr  chan error
	closeOnce sync.Once
	closeErr  error
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the logger the session reports through
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout bounds the initialization handshake and any operation that
// does not carry its own deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithClientInfo sets the name and version announced during the handshake
func WithClientInfo(name, version string) Option {
	return func(c *Client) {
		c.info = protocol.Implementation{Name: name, Version: version}
	}
}

// WithMetrics records request outcomes and session counts on the provider
func WithMetrics(metrics observability.MetricsProvider) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// WithTracing opens a client span per outgoing request
func WithTracing(tracing *observability.TracingProvider) Option {
	return func(c *Client) {
		c.tracing = tracing
	}
}

// New creates a session over the transport described by config. Connection
// parameters are validated eagerly; nothing is spawned or dialed until
// Initialize.
func New(config transport.Config, opts ...Option) (*Client, error) {
	c := &Client{
		timeout: config.Timeout,
		logger:  config.Logger,
		info: protocol.Implementation{
			Name:    "mcp-client-go",
			Version: "1.0.0",
		},
		state:    StateUninitialized,
		startErr: make(chan error, 1),
	}
	if c.timeout <= 0 {
		c.timeout = transport.DefaultTimeout
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	config.Logger = c.logger
	config.Timeout = c.timeout

	t, err := transport.New(config)
	if err != nil {
		return nil, err
	}

	var middlewares []transport.Middleware
	if c.tracing != nil {
		middlewares = append(middlewares, transport.WithTracing(c.tracing))
	}
	if c.metrics != nil {
		middlewares = append(middlewares, transport.WithMetrics(c.metrics))
	}
	c.transport = transport.ChainMiddleware(t, middlewares...)

	return c, nil
}

// NewWithTransport creates a session over an already constructed transport.
// Used by tests and by callers with custom channel implementations.
func NewWithTransport(t transport.Transport, opts ...Option) *Client {
	c := &Client{
		transport: t,
		timeout:   transport.DefaultTimeout,
		logger:    logging.NewNop(),
		info: protocol.Implementation{
			Name:    "mcp-client-go",
			Version: "1.0.0",
		},
		state:    StateUninitialized,
		startErr: make(chan error, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current lifecycle state
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// requireReady guards every operation that needs a completed handshake
func (c *Client) requireReady(operation string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateReady {
		return mcperrors.InvalidState(operation, c.state.String())
	}
	return nil
}

// Initialize opens the transport and performs the MCP handshake. It is
// valid exactly once: on failure the session is Failed and must be
// discarded, not retried.
func (c *Client) Initialize(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateUninitialized {
		state := c.state
		c.mu.Unlock()
		return mcperrors.InvalidState("initialize", state.String())
	}
	c.state = StateInitializing
	c.mu.Unlock()

	if err := c.doInitialize(ctx); err != nil {
		c.setState(StateFailed)
		// Release whatever the transport acquired before the failure
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if stopErr := c.transport.Stop(stopCtx); stopErr != nil {
			c.logger.Warn("transport cleanup after failed handshake",
				logging.ErrorField(stopErr))
		}
		return err
	}

	c.setState(StateReady)
	if c.metrics != nil {
		c.metrics.RecordSessionState(1)
	}
	return nil
}

func (c *Client) doInitialize(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.transport.Initialize(ctx); err != nil {
		return err
	}

	// The receive loop runs for the life of the session. Its exit is
	// consumed by Close; an early exit fails the pending handshake
	// request through transport cleanup.
	go func() {
		c.startErr <- c.transport.Start(context.Background())
	}()

	params := protocol.InitializeParams{
		ProtocolVersion: protocol.ProtocolRevision,
		Capabilities:    protocol.ClientCapabilities{},
		ClientInfo:      c.info,
	}

	raw, err := c.transport.SendRequest(ctx, protocol.MethodInitialize, params)
	if err != nil {
		return c.classify(ctx, "initialize handshake", err)
	}

	var result protocol.InitializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return mcperrors.DataError("malformed initialize response", err)
	}

	c.mu.Lock()
	c.initRes = &result
	c.mu.Unlock()

	if err := c.transport.SendNotification(ctx, protocol.MethodInitialized, nil); err != nil {
		return c.classify(ctx, "initialized notification", err)
	}

	c.logger.Info("session ready",
		logging.String("server", result.ServerInfo.Name),
		logging.String("server_version", result.ServerInfo.Version),
		logging.String("protocol_version", result.ProtocolVersion))
	return nil
}

// classify maps a context failure onto the timeout/cancellation taxonomy
// and passes every other error through.
func (c *Client) classify(ctx context.Context, operation string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return mcperrors.FromContextError(operation, c.timeout, ctxErr)
	}
	return err
}

// call performs one request with the ready guard and the session timeout
// applied when the caller's context has no deadline.
func (c *Client) call(ctx context.Context, operation, method string, params interface{}) (json.RawMessage, error) {
	if err := c.requireReady(operation); err != nil {
		return nil, err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	raw, err := c.transport.SendRequest(ctx, method, params)
	if err != nil {
		return nil, c.classify(ctx, operation, err)
	}
	return raw, nil
}

// parseResult unmarshals a raw result into out with data-error wrapping
func parseResult(raw json.RawMessage, out interface{}, what string) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return mcperrors.DataError(fmt.Sprintf("malformed %s response", what), err)
	}
	return nil
}

// Metadata probes the server for liveness and returns its identity as
// captured during the handshake.
func (c *Client) Metadata(ctx context.Context) (*ServerMetadata, error) {
	if _, err := c.call(ctx, "fetch server metadata", protocol.MethodPing, nil); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return &ServerMetadata{
		Name:            c.initRes.ServerInfo.Name,
		Version:         c.initRes.ServerInfo.Version,
		ProtocolVersion: c.initRes.ProtocolVersion,
		Capabilities:    c.initRes.Capabilities,
		Instructions:    c.initRes.Instructions,
	}, nil
}

// Ping checks that the server is responsive
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.call(ctx, "ping server", protocol.MethodPing, nil)
	return err
}

// listParams builds the request params for one page; the first page
// sends no params at all.
func listParams(cursor string) interface{} {
	if cursor == "" {
		return nil
	}
	return protocol.ListParams{Cursor: cursor}
}

// ListTools returns the server's tool descriptors, following pagination
// cursors until the listing is complete.
func (c *Client) ListTools(ctx context.Context) ([]protocol.Tool, error) {
	return pagination.Collect(func(cursor string) ([]protocol.Tool, string, error) {
		raw, err := c.call(ctx, "list tools", protocol.MethodListTools, listParams(cursor))
		if err != nil {
			return nil, "", err
		}
		var result protocol.ListToolsResult
		if err := parseResult(raw, &result, "tools/list"); err != nil {
			return nil, "", err
		}
		return result.Tools, result.NextCursor, nil
	})
}

// CallTool invokes a named tool. args is marshaled as the tool's argument
// object; nil sends no arguments.
func (c *Client) CallTool(ctx context.Context, name string, args interface{}) (*protocol.CallToolResult, error) {
	if name == "" {
		return nil, mcperrors.DataErrorf("tool name must not be empty")
	}

	params := protocol.CallToolParams{Name: name}
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			return nil, mcperrors.DataError("failed to marshal tool arguments", err)
		}
		params.Arguments = data
	}

	start := time.Now()
	raw, err := c.call(ctx, fmt.Sprintf("call tool %q", name), protocol.MethodCallTool, params)
	if c.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		c.metrics.RecordToolCall(name, status, time.Since(start))
	}
	if err != nil {
		return nil, err
	}

	var result protocol.CallToolResult
	if err := parseResult(raw, &result, "tools/call"); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListPrompts returns the server's prompt descriptors, following
// pagination cursors until the listing is complete.
func (c *Client) ListPrompts(ctx context.Context) ([]protocol.Prompt, error) {
	return pagination.Collect(func(cursor string) ([]protocol.Prompt, string, error) {
		raw, err := c.call(ctx, "list prompts", protocol.MethodListPrompts, listParams(cursor))
		if err != nil {
			return nil, "", err
		}
		var result protocol.ListPromptsResult
		if err := parseResult(raw, &result, "prompts/list"); err != nil {
			return nil, "", err
		}
		return result.Prompts, result.NextCursor, nil
	})
}

// GetPrompt retrieves a named prompt with the given arguments applied
func (c *Client) GetPrompt(ctx context.Context, name string, args map[string]string) (*protocol.GetPromptResult, error) {
	if name == "" {
		return nil, mcperrors.DataErrorf("prompt name must not be empty")
	}

	params := protocol.GetPromptParams{Name: name, Arguments: args}
	raw, err := c.call(ctx, fmt.Sprintf("get prompt %q", name), protocol.MethodGetPrompt, params)
	if err != nil {
		return nil, err
	}

	var result protocol.GetPromptResult
	if err := parseResult(raw, &result, "prompts/get"); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListResources returns the server's concrete resources together with its
// resource templates. Servers without template support simply yield none.
func (c *Client) ListResources(ctx context.Context) ([]protocol.Resource, []protocol.ResourceTemplate, error) {
	resources, err := pagination.Collect(func(cursor string) ([]protocol.Resource, string, error) {
		raw, err := c.call(ctx, "list resources", protocol.MethodListResources, listParams(cursor))
		if err != nil {
			return nil, "", err
		}
		var result protocol.ListResourcesResult
		if err := parseResult(raw, &result, "resources/list"); err != nil {
			return nil, "", err
		}
		return result.Resources, result.NextCursor, nil
	})
	if err != nil {
		return nil, nil, err
	}

	templates, err := pagination.Collect(func(cursor string) ([]protocol.ResourceTemplate, string, error) {
		raw, err := c.call(ctx, "list resource templates", protocol.MethodListResourceTemplates, listParams(cursor))
		if err != nil {
			return nil, "", err
		}
		var result protocol.ListResourceTemplatesResult
		if err := parseResult(raw, &result, "resources/templates/list"); err != nil {
			return nil, "", err
		}
		return result.ResourceTemplates, result.NextCursor, nil
	})
	if err != nil {
		// Template listing is optional server surface; a server that
		// rejects the method still has its concrete resources.
		if mcperrors.IsAPI(err) {
			return resources, nil, nil
		}
		return nil, nil, err
	}

	return resources, templates, nil
}

// ReadResource retrieves the contents of a resource by URI
func (c *Client) ReadResource(ctx context.Context, uri string) ([]protocol.ResourceContents, error) {
	if uri == "" {
		return nil, mcperrors.DataErrorf("resource URI must not be empty")
	}

	params := protocol.ReadResourceParams{URI: uri}
	raw, err := c.call(ctx, fmt.Sprintf("read resource %q", uri), protocol.MethodReadResource, params)
	if err != nil {
		return nil, err
	}

	var result protocol.ReadResourceResult
	if err := parseResult(raw, &result, "resources/read"); err != nil {
		return nil, err
	}
	return result.Contents, nil
}

// SubscribeResource registers for update notifications on a resource.
// Updates arrive through the handler registered with OnResourceUpdated.
func (c *Client) SubscribeResource(ctx context.Context, uri string) error {
	if uri == "" {
		return mcperrors.DataErrorf("resource URI must not be empty")
	}
	params := protocol.SubscribeResourceParams{URI: uri}
	_, err := c.call(ctx, fmt.Sprintf("subscribe resource %q", uri), protocol.MethodSubscribeResource, params)
	return err
}

// UnsubscribeResource cancels update notifications for a resource
func (c *Client) UnsubscribeResource(ctx context.Context, uri string) error {
	if uri == "" {
		return mcperrors.DataErrorf("resource URI must not be empty")
	}
	params := protocol.SubscribeResourceParams{URI: uri}
	_, err := c.call(ctx, fmt.Sprintf("unsubscribe resource %q", uri), protocol.MethodUnsubscribeResource, params)
	return err
}

// OnResourceUpdated registers a handler for resource update notifications
func (c *Client) OnResourceUpdated(handler func(uri string)) {
	c.transport.RegisterNotificationHandler(protocol.MethodResourceUpdated,
		func(_ context.Context, params json.RawMessage) error {
			var p struct {
				URI string `json:"uri"`
			}
			if err := json.Unmarshal(params, &p); err != nil {
				return mcperrors.DataError("malformed resource update", err)
			}
			handler(p.URI)
			return nil
		})
}

// OnToolsChanged registers a handler for tool list change notifications
func (c *Client) OnToolsChanged(handler func()) {
	c.transport.RegisterNotificationHandler(protocol.MethodToolsChanged,
		func(context.Context, json.RawMessage) error {
			handler()
			return nil
		})
}

// Close tears the session down. It is idempotent and valid in every
// state; operations in flight fail with a connection error.
func (c *Client) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		prev := c.state
		c.state = StateClosed
		c.mu.Unlock()

		if prev == StateUninitialized || prev == StateFailed {
			return
		}

		c.closeErr = c.transport.Stop(ctx)

		// Wait for the receive loop to drain, but never past the
		// caller's deadline and never indefinitely.
		drain := time.NewTimer(5 * time.Second)
		defer drain.Stop()
		select {
		case err := <-c.startErr:
			if err != nil && c.closeErr == nil {
				c.closeErr = err
			}
		case <-ctx.Done():
		case <-drain.C:
		}

		if prev == StateReady && c.metrics != nil {
			c.metrics.RecordSessionState(-1)
		}
		c.logger.Info("session closed")
	})
	return c.closeErr
}
