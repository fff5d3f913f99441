package registry

import (
	"context"
	"encoding/json"

	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
	"github.com/modelctx/mcp-client-go/pkg/protocol"
	"github.com/modelctx/mcp-client-go/pkg/utils"
)

// BoundTool is a tool descriptor tied to the session that serves it, in a
// shape agent frameworks can adopt directly.
type BoundTool struct {
	// Server is the registry name of the session serving this tool
	Server string `json:"server"`

	// Name is the tool name as the server declares it
	Name string `json:"name"`

	// Description is the server's human-readable summary
	Description string `json:"description,omitempty"`

	// InputSchema is the tool's JSON Schema for arguments
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`

	registry *Registry
}

// Call invokes the bound tool on its originating server. Arguments are
// checked against the advertised schema's required properties before
// anything hits the wire.
func (t *BoundTool) Call(ctx context.Context, args interface{}) (*protocol.CallToolResult, error) {
	var raw json.RawMessage
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			return nil, mcperrors.DataError("failed to marshal tool arguments", err)
		}
		raw = data
	}
	if err := utils.ValidateRequired(t.InputSchema, raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return t.registry.CallTool(ctx, t.Server, t.Name, nil)
	}
	return t.registry.CallTool(ctx, t.Server, t.Name, raw)
}

// BoundTools aggregates tools across all sessions as callable bindings,
// with the same best-effort semantics as Tools.
func (r *Registry) BoundTools(ctx context.Context) []*BoundTool {
	var out []*BoundTool
	for _, st := range r.Tools(ctx) {
		for _, tool := range st.Tools {
			out = append(out, &BoundTool{
				Server:      st.Server,
				Name:        tool.Name,
				Description: tool.Description,
				InputSchema: tool.InputSchema,
				registry:    r,
			})
		}
	}
	return out
}
