package protocol

import (
	"encoding/json"
)

// Tool represents a remotely invocable operation exposed by a server.
// The input schema is server-provided JSON Schema and is carried
// uninterpreted.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// ListToolsResult defines the response for listing tools. Order is the
// server's; the client never reorders.
type ListToolsResult struct {
	Tools      []Tool `json:"tools"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// CallToolParams defines parameters for calling a tool. Arguments are
// passed through opaque; the server validates them against the tool's
// schema.
type CallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// CallToolResult defines the response for tool calls. IsError marks a
// tool-level failure the server chose to report as content rather than as
// a protocol error.
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Content is one item of a tool or prompt payload. Exactly one of Text,
// Data or Resource is populated, discriminated by Type.
type Content struct {
	Type     string            `json:"type"`
	Text     string            `json:"text,omitempty"`
	Data     string            `json:"data,omitempty"`
	MimeType string            `json:"mimeType,omitempty"`
	Resource *ResourceContents `json:"resource,omitempty"`
}
