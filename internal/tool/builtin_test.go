package tool_test

import (
	"testing"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/tool"
	_ "github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/tool/builtin"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinNames_DeterministicAndComplete(t *testing.T) {
	assert.Equal(t, []string{"flights_finder", "hotels_finder"}, tool.BuiltinNames())
}

func TestNewBuiltinRegistry_DoesNotRequireFinder(t *testing.T) {
	registry, err := tool.NewBuiltinRegistry(tool.BuiltinOptions{})
	require.NoError(t, err)

	defs := registry.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "flights_finder", defs[0].Name)
	assert.Equal(t, "hotels_finder", defs[1].Name)
	assert.Equal(t, []string{"q", "check_in_date", "check_out_date"}, defs[1].Parameters["required"])
}

func TestRegisterBuiltin_RejectsDuplicates(t *testing.T) {
	assert.Panics(t, func() {
		tool.RegisterBuiltin("flights_finder", func(tool.BuiltinOptions) (tool.Tool, error) { return nil, nil })
	})
	assert.Panics(t, func() { tool.RegisterBuiltin("  ", nil) })
}
