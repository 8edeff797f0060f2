package tool

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateArgs(t *testing.T) {
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"q":      map[string]interface{}{"type": "string"},
			"adults": map[string]interface{}{"type": "integer"},
			"sort_by": map[string]interface{}{
				"type": "string",
				"enum": []string{"3", "8", "13"},
			},
			"tags": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
		},
		"required": []interface{}{"q"},
	}

	tests := []struct {
		name    string
		args    any
		wantErr string
	}{
		{name: "valid map", args: map[string]any{"q": "Paris", "adults": 2}},
		{name: "valid json", args: json.RawMessage(`{"q":"Paris","adults":2}`)},
		{name: "quoted number", args: map[string]any{"q": "Paris", "adults": "2"}},
		{name: "params envelope", args: `{"params":{"q":"Paris"}}`},
		{name: "typed struct skipped", args: struct{ Q string }{}},
		{name: "missing required", args: map[string]any{"adults": 2}, wantErr: "missing required field: q"},
		{name: "null required", args: `{"q":null}`, wantErr: "missing required field: q"},
		{name: "wrong type", args: map[string]any{"q": 7}, wantErr: "field 'q' expected string"},
		{name: "bad number", args: map[string]any{"q": "x", "adults": "two"}, wantErr: "field 'adults' expected number"},
		{name: "enum", args: map[string]any{"q": "x", "sort_by": "9"}, wantErr: "must be one of"},
		{name: "array items", args: map[string]any{"q": "x", "tags": []any{"a", 1}}, wantErr: "field 'tags[1]' expected string"},
		{name: "bad json", args: "{", wantErr: "invalid JSON arguments"},
		{name: "unknown keys ignored", args: map[string]any{"q": "x", "extra": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArgs(schema, tt.args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
