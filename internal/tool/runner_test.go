package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/observe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoInput struct {
	City  string `mapstructure:"city"`
	Count int    `mapstructure:"count"`
}

var echoSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"city":  map[string]interface{}{"type": "string"},
		"count": map[string]interface{}{"type": "integer"},
	},
	"required": []string{"city"},
}

func newEchoTool(fn func(ctx context.Context, in echoInput) (any, error)) Tool {
	return NewTyped("echo", "echo the input", echoSchema,
		func() echoInput { return echoInput{Count: 1} },
		fn, ToolMetadata{Source: "builtin"})
}

func newRunner(t *testing.T, tools ...Tool) *Runner {
	t.Helper()
	registry := NewRegistry()
	for _, tl := range tools {
		registry.Register(tl)
	}
	registry.Freeze()
	return NewRunner(registry, observe.DefaultMetrics())
}

func TestRegistryRegister_UsesSingleName(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newEchoTool(nil))

	_, ok := registry.Get(" echo ")
	require.True(t, ok)

	_, ok = registry.Get("tools.echo")
	require.False(t, ok)

	_, err := registry.Lookup("nope")
	assert.ErrorIs(t, err, ErrToolNotFound)

	assert.Panics(t, func() { registry.Register(newEchoTool(nil)) })

	registry.Freeze()
	assert.Panics(t, func() {
		registry.Register(NewTyped[echoInput]("other", "", nil, nil, nil, ToolMetadata{}))
	})
}

func TestRunnerExecute_UnknownTool(t *testing.T) {
	runner := newRunner(t, newEchoTool(nil))

	_, err := runner.Execute(context.Background(), "teleport", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolNotFound)
	assert.NotErrorIs(t, err, ErrToolFailed)
}

func TestRunnerExecute_DecodesEveryArgumentForm(t *testing.T) {
	var seen []echoInput
	runner := newRunner(t, newEchoTool(func(ctx context.Context, in echoInput) (any, error) {
		seen = append(seen, in)
		return map[string]any{"city": in.City}, nil
	}))

	inputs := []any{
		echoInput{City: "Paris", Count: 3},
		map[string]any{"city": "Paris"},
		map[string]any{"params": map[string]any{"city": "Paris", "count": "2"}},
		`{"city":"Paris","count":4}`,
	}
	for _, in := range inputs {
		out, err := runner.Execute(context.Background(), "echo", in)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"city": "Paris"}, out)
	}

	assert.Equal(t, []echoInput{
		{City: "Paris", Count: 3},
		{City: "Paris", Count: 1},
		{City: "Paris", Count: 2},
		{City: "Paris", Count: 4},
	}, seen)
}

func TestRunnerExecute_ToolErrorKeepsMessage(t *testing.T) {
	runner := newRunner(t, newEchoTool(func(ctx context.Context, in echoInput) (any, error) {
		return nil, errors.New("upstream exploded")
	}))

	_, err := runner.Execute(context.Background(), "echo", map[string]any{"city": "Oslo"})
	require.Error(t, err)
	assert.Equal(t, "upstream exploded", err.Error())
	assert.ErrorIs(t, err, ErrToolFailed)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "echo", execErr.Tool)
}

func TestRunnerExecute_ValidationFailure(t *testing.T) {
	called := false
	runner := newRunner(t, newEchoTool(func(ctx context.Context, in echoInput) (any, error) {
		called = true
		return nil, nil
	}))

	_, err := runner.Execute(context.Background(), "echo", map[string]any{"count": 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolFailed)
	assert.Contains(t, err.Error(), "missing required field: city")
	assert.False(t, called)
}

func TestRunnerExecute_RecoversPanic(t *testing.T) {
	runner := newRunner(t, newEchoTool(func(ctx context.Context, in echoInput) (any, error) {
		panic("boom")
	}))

	_, err := runner.Execute(context.Background(), "echo", map[string]any{"city": "Rome"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolFailed)
	assert.Contains(t, err.Error(), "panic: boom")
}
