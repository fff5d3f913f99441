// Package mcp is a Go client for the Model Context Protocol (2024-11-05).
//
// The top-level functions cover the common path: Connect dials a single
// server from an mcp.json config file, ConnectAll brings up every server
// the file declares into a registry. The underlying packages remain
// available for callers that need finer control.
package mcp

import (
	"context"

	"github.com/modelctx/mcp-client-go/pkg/client"
	"github.com/modelctx/mcp-client-go/pkg/config"
	"github.com/modelctx/mcp-client-go/pkg/registry"
	"github.com/modelctx/mcp-client-go/pkg/transport"
)

// Version is the client library version announced during the handshake
const Version = "1.0.0"

// Direct access to the core components
var (
	// NewClient creates a single-server session from transport config
	NewClient = client.New

	// NewRegistry creates an empty multi-server registry
	NewRegistry = registry.New

	// NewTransport creates a transport without a session around it
	NewTransport = transport.New

	// LoadConfig locates and parses an mcp.json file; an empty path
	// walks the standard search order
	LoadConfig = config.FindAndLoad
)

// Transport types accepted in configuration
const (
	TransportStdio = transport.TypeStdio
	TransportSSE   = transport.TypeSSE
)

// Client options
var (
	WithLogger     = client.WithLogger
	WithTimeout    = client.WithTimeout
	WithClientInfo = client.WithClientInfo
	WithMetrics    = client.WithMetrics
	WithTracing    = client.WithTracing
)

// Connect resolves a server from an mcp.json file and brings up a ready
// session against it. configPath may be empty to use the search order,
// and serverName may be empty to use the file's default server.
func Connect(ctx context.Context, configPath, serverName string, opts ...client.Option) (*client.Client, error) {
	f, err := config.FindAndLoad(configPath)
	if err != nil {
		return nil, err
	}

	cfg, err := f.Resolve(serverName)
	if err != nil {
		return nil, err
	}

	c, err := client.New(cfg, opts...)
	if err != nil {
		return nil, err
	}

	if err := c.Initialize(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// ConnectAll brings up a registry session for every server the config
// file declares. The first failure tears down the sessions connected so
// far and is returned.
func ConnectAll(ctx context.Context, configPath string, opts ...registry.RegistryOption) (*registry.Registry, error) {
	f, err := config.FindAndLoad(configPath)
	if err != nil {
		return nil, err
	}

	r := registry.New(opts...)
	for name := range f.Servers {
		cfg, err := f.Resolve(name)
		if err != nil {
			_ = r.Close(ctx)
			return nil, err
		}
		if _, err := r.Connect(ctx, name, cfg); err != nil {
			_ = r.Close(ctx)
			return nil, err
		}
	}
	return r, nil
}
