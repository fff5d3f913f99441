// Package transport provides the channel layer for MCP communication.
//
// Two transports are supported: stdio (a spawned subprocess with
// newline-delimited JSON-RPC over its standard pipes) and sse (a streaming
// HTTP connection with request POST-back). Both produce a duplex message
// channel exclusively owned by one session; responses are correlated to
// requests by ID, never by issuance order, so concurrent calls over one
// channel are safe.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
	"github.com/modelctx/mcp-client-go/pkg/logging"
	"github.com/modelctx/mcp-client-go/pkg/protocol"
)

// Transport defines the core interface for MCP transport mechanisms.
type Transport interface {
	// Initialize opens the underlying channel. No protocol traffic is
	// exchanged; the MCP handshake belongs to the client layer.
	Initialize(ctx context.Context) error

	// Start runs the receive loop. It blocks until the context is
	// cancelled, Stop is called, or the channel fails.
	Start(ctx context.Context) error

	// Stop tears the channel down. Safe to call more than once.
	Stop(ctx context.Context) error

	// SendRequest sends a request and waits for the correlated response.
	// A JSON-RPC error from the server is returned as an API error; the
	// raw result payload is returned otherwise.
	SendRequest(ctx context.Context, method string, params interface{}) (json.RawMessage, error)

	// SendNotification sends a one-way message.
	SendNotification(ctx context.Context, method string, params interface{}) error

	// RegisterNotificationHandler registers a handler for incoming
	// notifications of the given method.
	RegisterNotificationHandler(method string, handler NotificationHandler)

	// GenerateID returns the next request correlation ID.
	GenerateID() string
}

// NotificationHandler handles incoming notifications
type NotificationHandler func(ctx context.Context, params json.RawMessage) error

// Type identifies the transport implementation
type Type string

const (
	// TypeStdio spawns a subprocess and speaks over its standard pipes
	TypeStdio Type = "stdio"

	// TypeSSE opens a streaming HTTP connection
	TypeSSE Type = "sse"
)

// DefaultTimeout bounds the initialization handshake when the config does
// not say otherwise.
const DefaultTimeout = 60 * time.Second

// Config describes how to reach one server. Exactly one transport-specific
// field group is populated, validated at construction.
type Config struct {
	// Type of transport to create
	Type Type `json:"type"`

	// Endpoint is the SSE connection URL (sse only)
	Endpoint string `json:"endpoint,omitempty"`

	// Command and Args describe the subprocess to spawn (stdio only)
	Command string   `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`

	// Timeout bounds the initialization handshake
	Timeout time.Duration `json:"timeout,omitempty"`

	// Headers are attached to every outgoing HTTP request (sse only);
	// this is where a resolved credential travels.
	Headers map[string]string `json:"headers,omitempty"`

	// Description is free text carried along from the config file
	Description string `json:"description,omitempty"`

	// Logger receives transport diagnostics; a no-op logger is used
	// when nil.
	Logger logging.Logger `json:"-"`
}

// Validate checks the construction-time invariants: a supported type and
// the matching field group.
func (c Config) Validate() error {
	switch c.Type {
	case TypeStdio:
		if c.Command == "" {
			return mcperrors.ConfigError("command is required for stdio transport")
		}
		if c.Endpoint != "" {
			return mcperrors.ConfigError("endpoint is not valid for stdio transport")
		}
		return nil
	case TypeSSE:
		if c.Command != "" || len(c.Args) > 0 {
			return mcperrors.ConfigError("command/args are not valid for sse transport")
		}
		// An empty endpoint is a connection error, surfaced by New
		// before any network I/O; it is not a config-shape problem.
		return nil
	default:
		return mcperrors.ConfigErrorf("unsupported transport %q: only stdio and sse are supported", c.Type)
	}
}

// New creates a transport for the given configuration. Unsupported types
// are rejected eagerly; an sse config without an endpoint fails with a
// connection error before any network I/O is attempted.
func New(config Config) (Transport, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Logger == nil {
		config.Logger = logging.NewNop()
	}

	switch config.Type {
	case TypeStdio:
		return newStdioTransport(config), nil
	case TypeSSE:
		if config.Endpoint == "" {
			return nil, mcperrors.ConnectionFailed(string(TypeSSE), "",
				fmt.Errorf("base URL is required for SSE transport"))
		}
		return newSSETransport(config), nil
	default:
		// Validate already rejected everything else
		return nil, mcperrors.ConfigErrorf("unsupported transport %q", config.Type)
	}
}

// BaseTransport provides request correlation and notification dispatch
// shared by both transport implementations.
type BaseTransport struct {
	sync.Mutex
	notificationHandlers map[string]NotificationHandler
	pendingRequests      map[string]chan *protocol.Response
	nextID               int64
	requestIDPrefix      string
	logger               logging.Logger
}

// NewBaseTransport creates a new BaseTransport. The request ID prefix is
// unique per transport instance so correlation IDs never collide across
// reconnects sharing a server.
func NewBaseTransport(logger logging.Logger) *BaseTransport {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &BaseTransport{
		notificationHandlers: make(map[string]NotificationHandler),
		pendingRequests:      make(map[string]chan *protocol.Response),
		nextID:               1,
		requestIDPrefix:      uuid.NewString()[:8],
		logger:               logger,
	}
}

// RegisterNotificationHandler registers a handler for incoming notifications
func (t *BaseTransport) RegisterNotificationHandler(method string, handler NotificationHandler) {
	t.Lock()
	defer t.Unlock()
	t.notificationHandlers[method] = handler
}

// GenerateID returns the next request correlation ID
func (t *BaseTransport) GenerateID() string {
	t.Lock()
	defer t.Unlock()
	id := t.nextID
	t.nextID++
	return fmt.Sprintf("%s-%d", t.requestIDPrefix, id)
}

// RegisterPending allocates the response channel for a request ID. It must
// be called before the request bytes leave, or a fast response could race
// the registration.
func (t *BaseTransport) RegisterPending(id string) chan *protocol.Response {
	ch := make(chan *protocol.Response, 1)
	t.Lock()
	t.pendingRequests[id] = ch
	t.Unlock()
	return ch
}

// WaitForResponse waits for the response with the given ID. Cancellation
// releases the pending entry and surfaces ctx.Err to the caller.
func (t *BaseTransport) WaitForResponse(ctx context.Context, id string, ch chan *protocol.Response) (*protocol.Response, error) {
	select {
	case response, ok := <-ch:
		if !ok {
			return nil, mcperrors.ConnectionClosed("transport", nil)
		}
		return response, nil
	case <-ctx.Done():
		t.Lock()
		delete(t.pendingRequests, id)
		t.Unlock()
		return nil, ctx.Err()
	}
}

// HandleResponse routes an incoming response to its waiting request
func (t *BaseTransport) HandleResponse(response *protocol.Response) {
	id := fmt.Sprintf("%v", response.ID)
	t.Lock()
	ch, ok := t.pendingRequests[id]
	if ok {
		delete(t.pendingRequests, id)
	}
	t.Unlock()

	if !ok {
		t.logger.Debug("dropping response with no pending request", logging.String("id", id))
		return
	}
	ch <- response
}

// HandleNotification dispatches an incoming notification. Unregistered
// methods are logged and ignored; notifications are fire-and-forget.
func (t *BaseTransport) HandleNotification(ctx context.Context, notification *protocol.Notification) {
	t.Lock()
	handler, ok := t.notificationHandlers[notification.Method]
	t.Unlock()

	if !ok {
		t.logger.Debug("ignoring notification for unregistered method",
			logging.String("method", notification.Method))
		return
	}

	if err := handler(ctx, notification.Params); err != nil {
		t.logger.Warn("notification handler failed",
			logging.String("method", notification.Method),
			logging.ErrorField(err))
	}
}

// DispatchMessage classifies one raw incoming message and routes it.
// respond is used to answer server-initiated requests, which this client
// does not serve.
func (t *BaseTransport) DispatchMessage(ctx context.Context, data []byte, respond func([]byte) error) {
	var generic struct {
		ID     interface{}     `json:"id"`
		Method string          `json:"method"`
		Result json.RawMessage `json:"result"`
		Error  *protocol.Error `json:"error"`
	}
	if err := json.Unmarshal(data, &generic); err != nil {
		t.logger.Warn("dropping unparseable message", logging.ErrorField(err))
		return
	}

	switch {
	case generic.Method == "" && generic.ID != nil:
		var resp protocol.Response
		if err := json.Unmarshal(data, &resp); err != nil {
			t.logger.Warn("dropping malformed response", logging.ErrorField(err))
			return
		}
		t.HandleResponse(&resp)

	case generic.Method != "" && generic.ID == nil:
		var notif protocol.Notification
		if err := json.Unmarshal(data, &notif); err != nil {
			t.logger.Warn("dropping malformed notification", logging.ErrorField(err))
			return
		}
		t.HandleNotification(ctx, &notif)

	case generic.Method != "" && generic.ID != nil:
		// A server-initiated request. This client serves none, so answer
		// with method-not-found rather than leaving the server hanging.
		resp, err := protocol.NewErrorResponse(generic.ID, protocol.MethodNotFound,
			fmt.Sprintf("method not handled by client: %s", generic.Method), nil)
		if err != nil {
			return
		}
		respData, err := json.Marshal(resp)
		if err != nil {
			return
		}
		if respond != nil {
			if err := respond(respData); err != nil {
				t.logger.Warn("failed to answer server request", logging.ErrorField(err))
			}
		}

	default:
		t.logger.Warn("dropping message of unknown shape")
	}
}

// Cleanup fails all pending requests, used on teardown so no caller hangs
func (t *BaseTransport) Cleanup() {
	t.Lock()
	defer t.Unlock()

	for id, ch := range t.pendingRequests {
		close(ch)
		delete(t.pendingRequests, id)
	}
}

// SendRequestVia implements the shared request round trip over a raw send
// function: register, marshal, send, await.
func (t *BaseTransport) SendRequestVia(ctx context.Context, method string, params interface{}, send func(context.Context, []byte) error) (json.RawMessage, error) {
	id := t.GenerateID()

	req, err := protocol.NewRequest(id, method, params)
	if err != nil {
		return nil, mcperrors.DataError("failed to build request", err)
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, mcperrors.DataError("failed to marshal request", err)
	}

	ch := t.RegisterPending(id)

	if err := send(ctx, data); err != nil {
		t.Lock()
		delete(t.pendingRequests, id)
		t.Unlock()
		return nil, err
	}

	resp, err := t.WaitForResponse(ctx, id, ch)
	if err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return nil, mcperrors.APIError(int(resp.Error.Code), resp.Error.Message, method)
	}
	return resp.Result, nil
}

// SendNotificationVia implements the shared one-way send path
func (t *BaseTransport) SendNotificationVia(ctx context.Context, method string, params interface{}, send func(context.Context, []byte) error) error {
	notif, err := protocol.NewNotification(method, params)
	if err != nil {
		return mcperrors.DataError("failed to build notification", err)
	}

	data, err := json.Marshal(notif)
	if err != nil {
		return mcperrors.DataError("failed to marshal notification", err)
	}

	return send(ctx, data)
}
