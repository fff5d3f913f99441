// Package registry manages named MCP sessions and aggregates their
// capabilities across servers.
package registry

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/modelctx/mcp-client-go/pkg/client"
	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
	"github.com/modelctx/mcp-client-go/pkg/logging"
	"github.com/modelctx/mcp-client-go/pkg/protocol"
	"github.com/modelctx/mcp-client-go/pkg/transport"
)

// Registry holds ready sessions under unique names. Names are unique for
// the registry's lifetime: connecting a second server under an existing
// name fails and the first session is retained.
type Registry struct {
	logger logging.Logger
	opts   []client.Option

	mu       sync.RWMutex
	names    []string
	sessions map[string]*client.Client
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithLogger sets the logger for registry events
func WithLogger(logger logging.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithClientOptions sets options applied to every session the registry
// creates through Connect.
func WithClientOptions(opts ...client.Option) RegistryOption {
	return func(r *Registry) {
		r.opts = opts
	}
}

// New creates an empty registry
func New(opts ...RegistryOption) *Registry {
	r := &Registry{
		logger:   logging.NewNop(),
		sessions: make(map[string]*client.Client),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connect creates a session for the transport config, initializes it, and
// registers it under name. The name is claimed only once the session is
// ready; a failed handshake leaves the registry unchanged.
func (r *Registry) Connect(ctx context.Context, name string, config transport.Config) (*client.Client, error) {
	opts := append([]client.Option{client.WithLogger(r.logger)}, r.opts...)
	c, err := client.New(config, opts...)
	if err != nil {
		return nil, err
	}
	return c, r.ConnectClient(ctx, name, c)
}

// ConnectClient initializes an existing session and registers it under
// name. Used by Connect and by callers that build their own sessions.
func (r *Registry) ConnectClient(ctx context.Context, name string, c *client.Client) error {
	if name == "" {
		return mcperrors.ConfigError("server name must not be empty")
	}

	r.mu.RLock()
	_, exists := r.sessions[name]
	r.mu.RUnlock()
	if exists {
		return mcperrors.ServerAlreadyExists(name)
	}

	// The handshake runs outside the lock: slow servers must not block
	// operations against the rest of the registry.
	if err := c.Initialize(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	if _, exists := r.sessions[name]; exists {
		r.mu.Unlock()
		// Lost a connect race for the same name; the session we built
		// is surplus and must not leak.
		closeCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		_ = c.Close(closeCtx)
		return mcperrors.ServerAlreadyExists(name)
	}
	r.sessions[name] = c
	r.names = append(r.names, name)
	r.mu.Unlock()

	r.logger.Info("server connected", logging.String("server", name))
	return nil
}

// Get returns the session registered under name
func (r *Registry) Get(name string) (*client.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.sessions[name]
	if !ok {
		return nil, mcperrors.ServerNotConnected(name)
	}
	return c, nil
}

// Names returns the registered server names in connection order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// snapshot returns the sessions in connection order
func (r *Registry) snapshot() ([]string, []*client.Client) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.names))
	copy(names, r.names)
	sessions := make([]*client.Client, len(names))
	for i, name := range names {
		sessions[i] = r.sessions[name]
	}
	return names, sessions
}

// ServerTools is one server's contribution to an aggregate listing
type ServerTools struct {
	Server string
	Tools  []protocol.Tool
}

// Tools aggregates tool listings across all sessions, best effort: a
// server that fails to answer contributes nothing rather than failing the
// aggregate. Results follow connection order.
func (r *Registry) Tools(ctx context.Context) []ServerTools {
	names, sessions := r.snapshot()

	results := make([][]protocol.Tool, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i := range names {
		g.Go(func() error {
			if sessions[i].State() != client.StateReady {
				return nil
			}
			tools, err := sessions[i].ListTools(gctx)
			if err != nil {
				r.logger.Warn("skipping server in aggregate listing",
					logging.String("server", names[i]),
					logging.ErrorField(err))
				return nil
			}
			results[i] = tools
			return nil
		})
	}
	// Every goroutine returns nil; Wait only joins them
	_ = g.Wait()

	out := make([]ServerTools, 0, len(names))
	for i, name := range names {
		if results[i] == nil {
			continue
		}
		out = append(out, ServerTools{Server: name, Tools: results[i]})
	}
	return out
}

// CallTool invokes a tool on the named server
func (r *Registry) CallTool(ctx context.Context, server, tool string, args interface{}) (*protocol.CallToolResult, error) {
	c, err := r.Get(server)
	if err != nil {
		return nil, err
	}
	return c.CallTool(ctx, tool, args)
}

// GetPrompt retrieves a prompt from the named server
func (r *Registry) GetPrompt(ctx context.Context, server, prompt string, args map[string]string) (*protocol.GetPromptResult, error) {
	c, err := r.Get(server)
	if err != nil {
		return nil, err
	}
	return c.GetPrompt(ctx, prompt, args)
}

// ListResources lists the named server's resources and templates
func (r *Registry) ListResources(ctx context.Context, server string) ([]protocol.Resource, []protocol.ResourceTemplate, error) {
	c, err := r.Get(server)
	if err != nil {
		return nil, nil, err
	}
	return c.ListResources(ctx)
}

// ReadResource reads a resource from the named server
func (r *Registry) ReadResource(ctx context.Context, server, uri string) ([]protocol.ResourceContents, error) {
	c, err := r.Get(server)
	if err != nil {
		return nil, err
	}
	return c.ReadResource(ctx, uri)
}

// SubscribeResource subscribes to a resource on the named server
func (r *Registry) SubscribeResource(ctx context.Context, server, uri string) error {
	c, err := r.Get(server)
	if err != nil {
		return err
	}
	return c.SubscribeResource(ctx, uri)
}

// UnsubscribeResource cancels a resource subscription on the named server
func (r *Registry) UnsubscribeResource(ctx context.Context, server, uri string) error {
	c, err := r.Get(server)
	if err != nil {
		return err
	}
	return c.UnsubscribeResource(ctx, uri)
}

// Close closes every session. Failures do not stop the sweep; the joined
// errors are returned once every session has been attempted.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	names := r.names
	sessions := make([]*client.Client, len(names))
	for i, name := range names {
		sessions[i] = r.sessions[name]
	}
	r.names = nil
	r.sessions = make(map[string]*client.Client)
	r.mu.Unlock()

	var errs []error
	for i, c := range sessions {
		if err := c.Close(ctx); err != nil {
			r.logger.Warn("failed to close session",
				logging.String("server", names[i]),
				logging.ErrorField(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
