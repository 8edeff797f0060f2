package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/model/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, maxMessages int) *Store {
	t.Helper()
	s, err := NewStore(config.SessionConfig{IdleTTL: "10m", MaxMessages: maxMessages}, nil)
	require.NoError(t, err)
	return s
}

func TestStore_LoadReturnsCopy(t *testing.T) {
	s := newTestStore(t, 0)
	assert.Empty(t, s.Load("room-1"))

	s.Save("room-1", []contract.Message{{Role: contract.RoleUser, Content: "hi"}})
	loaded := s.Load("room-1")
	loaded[0].Content = "changed"

	assert.Equal(t, "hi", s.Load("room-1")[0].Content)
	assert.Empty(t, s.Load("room-2"))
	assert.Equal(t, 1, s.Len())
}

func TestStore_ResetAndSweep(t *testing.T) {
	s := newTestStore(t, 0)
	base := time.Date(2024, 6, 22, 12, 0, 0, 0, time.UTC)

	s.now = func() time.Time { return base }
	s.Save("old", []contract.Message{{Role: contract.RoleUser, Content: "a"}})
	s.now = func() time.Time { return base.Add(8 * time.Minute) }
	s.Save("fresh", []contract.Message{{Role: contract.RoleUser, Content: "b"}})

	assert.Equal(t, 1, s.Sweep(base.Add(11*time.Minute)))
	assert.Empty(t, s.Load("old"))
	assert.NotEmpty(t, s.Load("fresh"))

	assert.True(t, s.Reset("fresh"))
	assert.False(t, s.Reset("fresh"))
	assert.Equal(t, 0, s.Len())
}

func TestTrimTurns_NeverSplitsToolGroups(t *testing.T) {
	var messages []contract.Message
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("c%d", i)
		messages = append(messages,
			contract.Message{Role: contract.RoleUser, Content: fmt.Sprintf("q%d", i)},
			contract.Message{Role: contract.RoleAssistant, ToolCalls: []*contract.ToolCall{{ID: id, Name: "flights_finder"}}},
			contract.Message{Role: contract.RoleTool, ToolCallID: id},
			contract.Message{Role: contract.RoleAssistant, Content: fmt.Sprintf("a%d", i)},
		)
	}

	trimmed := trimTurns(messages, 6)
	require.Len(t, trimmed, 4)
	assert.Equal(t, "q2", trimmed[0].Content)

	assert.Len(t, trimTurns(messages, 0), 12)
	assert.Len(t, trimTurns(messages, 12), 12)
	assert.Equal(t, messages[1:], trimTurns(messages[1:], 2), "no user boundary keeps everything")
}

func TestSweeper_StartStop(t *testing.T) {
	s := newTestStore(t, 0)
	sw := NewSweeper(s, "@every 1h")

	require.NoError(t, sw.Start(context.Background()))
	assert.True(t, sw.Running())
	require.NoError(t, sw.Stop(context.Background()))
	assert.False(t, sw.Running())

	bad := NewSweeper(s, "not a schedule")
	assert.Error(t, bad.Start(context.Background()))
}
