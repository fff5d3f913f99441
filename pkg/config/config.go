// Package config loads mcp.json files and resolves their server entries
// into connection parameters.
//
// A config file declares named servers and optionally which of them is the
// default:
//
//	{
//	  "default_server": "local",
//	  "servers": {
//	    "local": {
//	      "transport": "stdio",
//	      "command": "mcp-server",
//	      "args": ["--verbose"]
//	    },
//	    "remote": {
//	      "transport": "sse",
//	      "base_url": "https://mcp.example.com/sse",
//	      "api_key": "env:MCP_API_KEY",
//	      "timeout": 30
//	    }
//	  }
//	}
//
// An api_key of the form "env:NAME" is read from the environment at
// resolution time; when the variable is unset the connection simply
// carries no credential.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
)

// FileName is the config file name looked for on the search path
const FileName = "mcp.json"

// File is a parsed mcp.json
type File struct {
	// DefaultServer names the entry Resolve falls back to when no
	// server is requested explicitly
	DefaultServer string `json:"default_server,omitempty"`

	// Servers maps names to their connection descriptions
	Servers map[string]ServerConfig `json:"servers"`
}

// ServerConfig describes one server entry in a config file
type ServerConfig struct {
	// Transport selects the channel: "stdio" or "sse"
	Transport string `json:"transport"`

	// BaseURL is the SSE connection URL (sse only)
	BaseURL string `json:"base_url,omitempty"`

	// Command and Args describe the subprocess to spawn (stdio only)
	Command string   `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`

	// APIKey is a literal credential or an env:NAME indirection
	APIKey string `json:"api_key,omitempty"`

	// Timeout in seconds for the initialization handshake
	Timeout int `json:"timeout,omitempty"`

	// Description is free text for humans
	Description string `json:"description,omitempty"`
}

// Find locates a config file. An explicit path bypasses the search and
// fails if absent; otherwise the search order is the working directory,
// the home dotfile, then the XDG config directory.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", mcperrors.ConfigFileNotFound(explicit)
		}
		return explicit, nil
	}

	candidates := []string{FileName}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, "."+FileName))
	}
	candidates = append(candidates, filepath.Join(xdg.ConfigHome, "mcp", FileName))

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", mcperrors.ConfigFileNotFound("")
}

// Load parses the config file at path
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, mcperrors.ConfigFileNotFound(path)
		}
		return nil, mcperrors.DataError("failed to read config file", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, mcperrors.DataError("invalid JSON in config file", err)
	}
	if f.Servers == nil {
		return nil, mcperrors.DataErrorf("config file %s is missing the servers mapping", path)
	}
	return &f, nil
}

// FindAndLoad locates and parses a config file in one step
func FindAndLoad(explicit string) (*File, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, err
	}
	return Load(path)
}
