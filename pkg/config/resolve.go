package config

import (
	"os"
	"strings"
	"time"

	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
	"github.com/modelctx/mcp-client-go/pkg/transport"
)

// envPrefix marks an api_key value as an environment indirection
const envPrefix = "env:"

// DefaultServerName is tried when the file declares no default
const DefaultServerName = "default"

// ResolveOption overrides a file value for one resolution
type ResolveOption func(*resolveOptions)

type resolveOptions struct {
	timeout *time.Duration
	apiKey  *string
}

// WithTimeout overrides the entry's handshake timeout
func WithTimeout(timeout time.Duration) ResolveOption {
	return func(o *resolveOptions) {
		o.timeout = &timeout
	}
}

// WithAPIKey overrides the entry's credential, bypassing any env
// indirection in the file.
func WithAPIKey(key string) ResolveOption {
	return func(o *resolveOptions) {
		o.apiKey = &key
	}
}

// Resolve turns a server entry into transport configuration. Server
// selection falls back from the explicit name to the file's declared
// default to the conventional name "default"; options take precedence
// over file values.
func (f *File) Resolve(serverName string, opts ...ResolveOption) (transport.Config, error) {
	name := serverName
	if name == "" {
		name = f.DefaultServer
	}
	if name == "" {
		name = DefaultServerName
	}

	entry, ok := f.Servers[name]
	if !ok {
		return transport.Config{}, mcperrors.ServerNameUnknown(name)
	}

	var options resolveOptions
	for _, opt := range opts {
		opt(&options)
	}

	cfg := transport.Config{
		Type:        transport.Type(entry.Transport),
		Endpoint:    entry.BaseURL,
		Command:     entry.Command,
		Args:        entry.Args,
		Description: entry.Description,
	}

	if entry.Timeout > 0 {
		cfg.Timeout = time.Duration(entry.Timeout) * time.Second
	}
	if options.timeout != nil {
		cfg.Timeout = *options.timeout
	}

	apiKey := resolveSecret(entry.APIKey)
	if options.apiKey != nil {
		apiKey = *options.apiKey
	}
	if apiKey != "" {
		cfg.Headers = map[string]string{
			"Authorization": "Bearer " + apiKey,
		}
	}

	if err := cfg.Validate(); err != nil {
		return transport.Config{}, err
	}
	return cfg, nil
}

// resolveSecret reads an env:NAME indirection from the environment. An
// unset variable yields no credential rather than an error; the caller
// proceeds unauthenticated.
func resolveSecret(value string) string {
	if !strings.HasPrefix(value, envPrefix) {
		return value
	}
	return os.Getenv(strings.TrimPrefix(value, envPrefix))
}
