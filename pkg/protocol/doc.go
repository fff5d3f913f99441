// Package protocol defines the wire types exchanged with MCP servers.
//
// The Model Context Protocol (MCP) is a JSON-RPC based communication protocol
// that lets a client discover and use tools, prompts and resources exposed by
// a server. This package contains the Go type definitions for all protocol
// messages this client sends or receives.
//
// # Package Organization
//
//   - jsonrpc.go: JSON-RPC 2.0 framing (requests, responses, notifications)
//   - mcp.go: method names, protocol revision, handshake types
//   - tools.go: tool descriptors and invocation types
//   - prompts.go: prompt descriptors and role-tagged messages
//   - resources.go: resource descriptors, templates and contents
//
// # Message Flow
//
//  1. Client opens a transport channel and sends an initialize request
//  2. Server responds with its capabilities and server info
//  3. Client sends the initialized notification
//  4. Client issues requests (tools/list, tools/call, resources/read, ...)
//  5. Client disconnects when done
//
// Server-provided payloads such as tool input schemas and tool call results
// are carried uninterpreted as json.RawMessage. The client validates only
// the invariants it owns (non-empty names, well-formed URIs); the server is
// authoritative for everything else.
package protocol
