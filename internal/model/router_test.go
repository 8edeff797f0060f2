package model

import (
	"context"
	"errors"
	"testing"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	agentErrors "github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/errors"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/model/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	name  string
	calls []contract.CompletionRequest
	err   error
}

func (p *mockProvider) Name() string                     { return p.name }
func (p *mockProvider) Type() string                     { return "mock" }
func (p *mockProvider) Health(ctx context.Context) error { return nil }

func (p *mockProvider) Generate(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	p.calls = append(p.calls, req)
	if p.err != nil {
		return nil, p.err
	}
	if len(p.calls) == 1 {
		return &contract.CompletionResponse{
			ToolCalls: []*contract.ToolCall{{ID: "call_1", Name: "flights_finder", Input: `{"departure_airport":"SFO"}`}},
		}, nil
	}
	return &contract.CompletionResponse{Content: "done"}, nil
}

func newTestRouter(t *testing.T, providers map[string]Provider) *DefaultModelRouter {
	t.Helper()
	var opts []RouterOption
	for name, p := range providers {
		opts = append(opts, WithProvider(name, p))
	}
	r, err := NewModelRouter(config.ModelsConfig{Default: "primary", Fallback: "backup"}, opts...)
	require.NoError(t, err)
	return r
}

func TestRouteReplaysToolResult(t *testing.T) {
	p := &mockProvider{name: "primary"}
	r := newTestRouter(t, map[string]Provider{"primary": p})

	messages := []contract.Message{{Role: contract.RoleUser, Content: "find flights"}}
	tools := []contract.ToolDef{{Name: "flights_finder", Parameters: map[string]interface{}{"type": "object"}}}

	resp, err := r.Route(context.Background(), "primary", contract.CompletionRequest{Messages: messages, Tools: tools})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)

	messages = append(messages,
		contract.Message{Role: contract.RoleAssistant, ToolCalls: resp.ToolCalls},
		contract.Message{Role: contract.RoleTool, ToolCallID: resp.ToolCalls[0].ID, Name: "flights_finder", Content: `{"flights":[]}`},
	)
	resp, err = r.Route(context.Background(), "", contract.CompletionRequest{Messages: messages, Tools: tools})
	require.NoError(t, err)
	assert.Equal(t, "done", resp.Content)

	require.Len(t, p.calls, 2)
	assert.Equal(t, "primary", p.calls[1].Model)
	last := p.calls[1].Messages[2]
	assert.Equal(t, contract.RoleTool, last.Role)
	assert.Equal(t, "call_1", last.ToolCallID)
}

func TestRouteUnknownModelUsesFallback(t *testing.T) {
	backup := &mockProvider{name: "backup"}
	r := newTestRouter(t, map[string]Provider{"primary": &mockProvider{}, "backup": backup})

	_, err := r.Route(context.Background(), "missing", contract.CompletionRequest{})
	require.NoError(t, err)
	require.Len(t, backup.calls, 1)
	assert.Equal(t, "backup", backup.calls[0].Model)
}

func TestRouteFailureIsSingleAttempt(t *testing.T) {
	primary := &mockProvider{err: errors.New("503 service unavailable: timeout")}
	backup := &mockProvider{}
	r := newTestRouter(t, map[string]Provider{"primary": primary, "backup": backup})

	_, err := r.Route(context.Background(), "primary", contract.CompletionRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, agentErrors.ErrTransient)
	assert.Contains(t, err.Error(), "503 service unavailable")
	assert.Len(t, primary.calls, 1)
	assert.Empty(t, backup.calls)
}

func TestRouteNotFoundWithoutFallback(t *testing.T) {
	r, err := NewModelRouter(config.ModelsConfig{}, WithProvider("only", &mockProvider{}))
	require.NoError(t, err)

	_, err = r.Route(context.Background(), "other", contract.CompletionRequest{})
	assert.ErrorIs(t, err, agentErrors.ErrNotFound)
	assert.Equal(t, []string{"only"}, r.ListModels())
	assert.NoError(t, r.Health(context.Background()))
}

func TestRouteCancelledContext(t *testing.T) {
	r := newTestRouter(t, map[string]Provider{"primary": &mockProvider{}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Route(ctx, "primary", contract.CompletionRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewModelRouterSkipsProvidersWithoutKeys(t *testing.T) {
	_, err := NewModelRouter(config.ModelsConfig{Registry: []config.ModelRegistry{
		{Name: "gemini-1.5-flash", Provider: config.ProviderGemini},
		{Name: "x", Provider: "unknown"},
	}})
	assert.ErrorIs(t, err, agentErrors.ErrUnavailable)

	r, err := NewModelRouter(config.ModelsConfig{Registry: []config.ModelRegistry{
		{Name: "llama3.1", Provider: config.ProviderOllama},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3.1"}, r.ListModels())
}
