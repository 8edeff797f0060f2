package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// paramsKey is the envelope some models wrap arguments in, mirroring a
// function signature with a single "params" argument.
const paramsKey = "params"

// Decode normalizes args into out. out should already hold the defaults:
// only keys present in args overwrite fields. Accepted forms are In or *In,
// map[string]any (optionally wrapped as {"params": {...}}), raw JSON as
// json.RawMessage, []byte or string, and any other struct with matching
// mapstructure tags.
func Decode[In any](args any, out *In) error {
	switch v := args.(type) {
	case nil:
		return nil
	case In:
		*out = v
		return nil
	case *In:
		if v != nil {
			*out = *v
		}
		return nil
	case json.RawMessage:
		return decodeJSON([]byte(v), out)
	case []byte:
		return decodeJSON(v, out)
	case string:
		return decodeJSON([]byte(v), out)
	default:
		return decodeMap(v, out)
	}
}

func decodeJSON[In any](raw []byte, out *In) error {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(trimmed), &m); err != nil {
		return fmt.Errorf("invalid JSON arguments: %w", err)
	}
	return decodeMap(m, out)
}

func decodeMap[In any](input any, out *In) error {
	if m, ok := input.(map[string]any); ok {
		input = UnwrapParams(m)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ZeroFields:       false,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// UnwrapParams returns the inner map when m is exactly {"params": {...}}.
// A JSON-encoded string under "params" is accepted as well.
func UnwrapParams(m map[string]any) map[string]any {
	if len(m) != 1 {
		return m
	}
	switch inner := m[paramsKey].(type) {
	case map[string]any:
		return inner
	case string:
		var decoded map[string]any
		if err := json.Unmarshal([]byte(inner), &decoded); err == nil {
			return decoded
		}
	}
	return m
}

// ArgsMap normalizes untyped args into a map for schema validation. Typed
// structs report ok=false; they are valid by construction.
func ArgsMap(args any) (map[string]any, bool, error) {
	var raw []byte
	switch v := args.(type) {
	case nil:
		return map[string]any{}, true, nil
	case map[string]any:
		return UnwrapParams(v), true, nil
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return nil, false, nil
	}

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return map[string]any{}, true, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(trimmed), &m); err != nil {
		return nil, true, fmt.Errorf("invalid JSON arguments: %w", err)
	}
	return UnwrapParams(m), true, nil
}

type typedTool[In any] struct {
	name        string
	description string
	schema      map[string]interface{}
	defaults    func() In
	fn          func(ctx context.Context, in In) (any, error)
	meta        ToolMetadata
}

// NewTyped builds a Tool whose arguments are decoded into In before fn runs.
// defaults supplies the starting value that decoded arguments overwrite.
func NewTyped[In any](name, description string, schema map[string]interface{}, defaults func() In, fn func(ctx context.Context, in In) (any, error), meta ToolMetadata) Tool {
	if defaults == nil {
		defaults = func() In {
			var zero In
			return zero
		}
	}
	return &typedTool[In]{
		name:        name,
		description: description,
		schema:      schema,
		defaults:    defaults,
		fn:          fn,
		meta:        meta,
	}
}

func (t *typedTool[In]) Name() string                       { return t.name }
func (t *typedTool[In]) Description() string                { return t.description }
func (t *typedTool[In]) Parameters() map[string]interface{} { return t.schema }
func (t *typedTool[In]) ToolMetadata() ToolMetadata         { return t.meta }

func (t *typedTool[In]) Execute(ctx context.Context, args any) (any, error) {
	in := t.defaults()
	if err := Decode(args, &in); err != nil {
		return nil, err
	}
	return t.fn(ctx, in)
}
