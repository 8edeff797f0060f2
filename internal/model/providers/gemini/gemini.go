package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/model/contract"

	"google.golang.org/genai"
)

type Provider struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

func New(apiKey, model string, maxTokens int32) (*Provider, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return &Provider{client: client, model: model, maxTokens: maxTokens}, nil
}

func (p *Provider) Name() string {
	return p.model
}

func (p *Provider) Type() string {
	return "gemini"
}

func (p *Provider) Health(ctx context.Context) error {
	if p.client == nil {
		return fmt.Errorf("gemini client not initialized")
	}
	return nil
}

func (p *Provider) Generate(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	system, contents := toContents(req.Messages)

	cfg := &genai.GenerateContentConfig{
		Tools:             toTools(req.Tools),
		SystemInstruction: system,
	}
	if p.maxTokens > 0 {
		cfg.MaxOutputTokens = p.maxTokens
	}

	modelName := req.Model
	if modelName == "" {
		modelName = p.model
	}

	resp, err := p.client.Models.GenerateContent(ctx, modelName, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	return fromResponse(resp), nil
}

// toContents splits system messages into the system instruction and maps the
// rest onto user/model turns. Consecutive tool results are grouped into one
// turn, matching how Gemini expects parallel function responses.
func toContents(messages []contract.Message) (*genai.Content, []*genai.Content) {
	var systemParts []*genai.Part
	var contents []*genai.Content

	for _, m := range messages {
		switch m.Role {
		case contract.RoleSystem:
			systemParts = append(systemParts, &genai.Part{Text: m.Content})

		case contract.RoleTool:
			part := &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       m.ToolCallID,
				Name:     m.Name,
				Response: responseObject(m.Content),
			}}
			if n := len(contents); n > 0 && contents[n-1].Role == genai.RoleUser && isFunctionResponseTurn(contents[n-1]) {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
				continue
			}
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{part}})

		case contract.RoleAssistant:
			var parts []*genai.Part
			if strings.TrimSpace(m.Content) != "" {
				parts = append(parts, &genai.Part{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				var args map[string]any
				_ = json.Unmarshal([]byte(tc.Input), &args)
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: args}})
			}
			if len(parts) == 0 {
				parts = append(parts, &genai.Part{Text: ""})
			}
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})

		default:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: m.Content}}})
		}
	}

	var system *genai.Content
	if len(systemParts) > 0 {
		system = &genai.Content{Parts: systemParts}
	}
	return system, contents
}

func isFunctionResponseTurn(c *genai.Content) bool {
	return len(c.Parts) > 0 && c.Parts[0].FunctionResponse != nil
}

// responseObject turns a tool result into the object Gemini requires. Non-object
// payloads are wrapped under "output".
func responseObject(content string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(content), &obj); err == nil && obj != nil {
		return obj
	}
	return map[string]any{"output": content}
}

func toTools(defs []contract.ToolDef) []*genai.Tool {
	if len(defs) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, t := range defs {
		decl := &genai.FunctionDeclaration{Name: t.Name, Description: t.Description}
		if t.Parameters != nil {
			decl.ParametersJsonSchema = t.Parameters
		}
		decls = append(decls, decl)
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func fromResponse(resp *genai.GenerateContentResponse) *contract.CompletionResponse {
	out := &contract.CompletionResponse{}
	if resp == nil {
		return out
	}

	for _, fc := range resp.FunctionCalls() {
		argsJSON, _ := json.Marshal(fc.Args)
		out.ToolCalls = append(out.ToolCalls, &contract.ToolCall{ID: fc.ID, Name: fc.Name, Input: string(argsJSON)})
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" && !part.Thought {
				out.Content += part.Text
			}
		}
	}
	return out
}
