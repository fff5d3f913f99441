// Package utils holds small helpers shared across the client: JSON schema
// reflection for typed tool arguments and a goroutine leak detector for
// tests.
package utils

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
)

// SchemaFor reflects a JSON schema from a Go struct type. Callers that
// define typed argument structs for the tools they invoke can derive the
// schema once and compare it against what the server advertises.
func SchemaFor[T any]() (json.RawMessage, error) {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	var zero T
	schema := reflector.Reflect(&zero)

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, mcperrors.DataError("failed to marshal reflected schema", err)
	}
	return data, nil
}

// DecodeArgs unmarshals raw tool arguments into a typed struct, rejecting
// unknown fields so drift between caller and server surfaces early.
func DecodeArgs(raw json.RawMessage, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return mcperrors.DataError("invalid tool arguments", err)
	}
	return nil
}

// ValidateRequired checks the provided arguments against a tool's declared
// input schema: every property the schema marks required must be present.
// Deeper validation is left to the server, which owns the schema.
func ValidateRequired(schema, args json.RawMessage) error {
	if len(schema) == 0 {
		return nil
	}

	var s struct {
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(schema, &s); err != nil {
		return mcperrors.DataError("malformed tool input schema", err)
	}
	if len(s.Required) == 0 {
		return nil
	}

	provided := map[string]json.RawMessage{}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &provided); err != nil {
			return mcperrors.DataError("tool arguments must be a JSON object", err)
		}
	}

	for _, name := range s.Required {
		if _, ok := provided[name]; !ok {
			return mcperrors.DataErrorf("missing required tool argument %q", name)
		}
	}
	return nil
}

// MergeArguments overlays JSON objects left to right; later values win.
// Useful for combining per-tool defaults with per-call arguments.
func MergeArguments(objects ...json.RawMessage) (json.RawMessage, error) {
	merged := map[string]json.RawMessage{}
	for i, obj := range objects {
		if len(obj) == 0 {
			continue
		}
		var m map[string]json.RawMessage
		if err := json.Unmarshal(obj, &m); err != nil {
			return nil, mcperrors.DataError(fmt.Sprintf("argument object %d is not a JSON object", i), err)
		}
		for k, v := range m {
			merged[k] = v
		}
	}

	out, err := json.Marshal(merged)
	if err != nil {
		return nil, mcperrors.DataError("failed to marshal merged arguments", err)
	}
	return out, nil
}
