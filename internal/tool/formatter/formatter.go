package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/tool"
)

type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

// ToolView is the printable form of a catalog entry.
type ToolView struct {
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description" yaml:"description"`
	Source       string   `json:"source" yaml:"source"`
	Provider     string   `json:"provider,omitempty" yaml:"provider,omitempty"`
	Capabilities []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	Required     []string `json:"required,omitempty" yaml:"required,omitempty"`
	Optional     []string `json:"optional,omitempty" yaml:"optional,omitempty"`
}

type ToolFormatter interface {
	FormatTools([]ToolView) (string, error)
	FormatTool(*ToolView) (string, error)
}

type FormatterFactory struct{}

func NewFormatterFactory() *FormatterFactory {
	return &FormatterFactory{}
}

func (f *FormatterFactory) Create(format OutputFormat) (ToolFormatter, error) {
	switch format {
	case OutputFormatTable:
		return NewTableFormatter(), nil
	case OutputFormatJSON:
		return NewJSONFormatter(), nil
	case OutputFormatYAML:
		return NewYAMLFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: table, json, yaml)", format)
	}
}

func ParseOutputFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(s))
	switch format {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("invalid output format: %s (supported: table, json, yaml)", s)
	}
}

// FromDescriptors flattens catalog descriptors, splitting the JSON schema
// properties into required and optional argument names.
func FromDescriptors(descriptors []tool.ToolDescriptor) []ToolView {
	views := make([]ToolView, 0, len(descriptors))
	for _, d := range descriptors {
		required, optional := splitParameters(d.Definition.Parameters)
		views = append(views, ToolView{
			Name:         d.Definition.Name,
			Description:  d.Definition.Description,
			Source:       d.Metadata.Source,
			Provider:     d.Metadata.Provider,
			Capabilities: d.Metadata.Capabilities,
			Required:     required,
			Optional:     optional,
		})
	}
	return views
}

func splitParameters(schema map[string]interface{}) (required, optional []string) {
	props, _ := schema["properties"].(map[string]interface{})
	if len(props) == 0 {
		return nil, nil
	}

	isRequired := make(map[string]bool)
	switch req := schema["required"].(type) {
	case []string:
		for _, name := range req {
			isRequired[name] = true
		}
	case []interface{}:
		for _, name := range req {
			if s, ok := name.(string); ok {
				isRequired[s] = true
			}
		}
	}

	for name := range props {
		if isRequired[name] {
			required = append(required, name)
		} else {
			optional = append(optional, name)
		}
	}
	sort.Strings(required)
	sort.Strings(optional)
	return required, optional
}
