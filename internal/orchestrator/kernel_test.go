package orchestrator

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/egress"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/ingress"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/model/contract"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/session"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/tool"
	_ "github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/tool/builtin"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/travel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Route(ctx context.Context, model string, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	args := m.Called(ctx, model, req)
	resp, _ := args.Get(0).(*contract.CompletionResponse)
	return resp, args.Error(1)
}

type stubSearcher struct {
	mu     sync.Mutex
	params []url.Values
}

func (s *stubSearcher) Search(ctx context.Context, params url.Values) (map[string]any, error) {
	s.mu.Lock()
	s.params = append(s.params, params)
	s.mu.Unlock()
	return map[string]any{"best_flights": []any{map[string]any{"price": 310.0}}}, nil
}

type captureAdapter struct {
	mu   sync.Mutex
	sent []string
}

func (c *captureAdapter) Name() string { return "voice" }
func (c *captureAdapter) Send(ctx context.Context, sessionID, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sessionID+": "+content)
	return nil
}
func (c *captureAdapter) Health(ctx context.Context) error { return nil }

type fixture struct {
	kernel   *DefaultKernel
	llm      *mockLLM
	threads  *session.Store
	searcher *stubSearcher
	out      *captureAdapter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	searcher := &stubSearcher{}
	finder := travel.NewFinder(searcher, travel.Locale{Language: "en", Country: "us", Currency: "USD", Stops: "1"}, 5)
	registry, err := tool.NewBuiltinRegistry(tool.BuiltinOptions{Finder: finder})
	require.NoError(t, err)

	threads, err := session.NewStore(config.SessionConfig{}, nil)
	require.NoError(t, err)

	out := &captureAdapter{}
	eg := egress.NewEgress()
	require.NoError(t, eg.Register(out))

	llm := new(mockLLM)
	kernel, err := NewKernel(config.OrchestratorConfig{MaxIterations: 3, ParallelTools: true}, "gemini-1.5-flash", llm,
		tool.NewRunner(registry, nil), threads, eg, nil)
	require.NoError(t, err)

	return &fixture{kernel: kernel, llm: llm, threads: threads, searcher: searcher, out: out}
}

func TestKernel_FlightSearchEndToEnd(t *testing.T) {
	f := newFixture(t)

	f.llm.On("Route", mock.Anything, "gemini-1.5-flash", mock.MatchedBy(func(req contract.CompletionRequest) bool {
		return len(req.Messages) == 2 && len(req.Tools) == 2
	})).Return(&contract.CompletionResponse{ToolCalls: []*contract.ToolCall{{
		ID:    "call_1",
		Name:  "flights_finder",
		Input: `{"params":{"departure_airport":"sfo","arrival_airport":"JFK","outbound_date":"2024-06-22","adults":2}}`,
	}}}, nil).Once()
	f.llm.On("Route", mock.Anything, "gemini-1.5-flash", mock.MatchedBy(func(req contract.CompletionRequest) bool {
		return len(req.Messages) == 4 && req.Messages[3].Role == contract.RoleTool
	})).Return(&contract.CompletionResponse{Content: "I found 1 flight for you."}, nil).Once()

	evt := ingress.NewEvent("voice", ingress.TypeUserMessage, "voice:1", "Find me a flight SFO→JFK on 2024-06-22 for 2 adults.", nil)
	require.NoError(t, f.kernel.Execute(context.Background(), &evt))

	assert.Equal(t, []string{"voice:1: I found 1 flight for you."}, f.out.sent)

	thread := f.threads.Load("voice:1")
	require.Len(t, thread, 4)
	assert.Equal(t, "flights_finder", thread[2].Name)
	assert.JSONEq(t, `{"flights":[{"price":310}]}`, thread[2].Content)

	require.Len(t, f.searcher.params, 1)
	assert.Equal(t, "SFO", f.searcher.params[0].Get("departure_id"))
	assert.Equal(t, "2", f.searcher.params[0].Get("adults"))
	f.llm.AssertExpectations(t)
}

func TestKernel_SecondTurnSeesHistory(t *testing.T) {
	f := newFixture(t)

	f.llm.On("Route", mock.Anything, mock.Anything, mock.MatchedBy(func(req contract.CompletionRequest) bool {
		return len(req.Messages) == 2
	})).Return(&contract.CompletionResponse{Content: "Where to?"}, nil).Once()
	f.llm.On("Route", mock.Anything, mock.Anything, mock.MatchedBy(func(req contract.CompletionRequest) bool {
		return len(req.Messages) == 4 && req.Messages[1].Content == "Hi" && req.Messages[3].Content == "Rome"
	})).Return(&contract.CompletionResponse{Content: "Rome it is."}, nil).Once()

	text, err := f.kernel.Run(context.Background(), "s1", "Hi")
	require.NoError(t, err)
	assert.Equal(t, "Where to?", text)

	text, err = f.kernel.Run(context.Background(), "s1", "Rome")
	require.NoError(t, err)
	assert.Equal(t, "Rome it is.", text)
	assert.Len(t, f.threads.Load("s1"), 4)
	f.llm.AssertExpectations(t)
}

func TestKernel_DecisionFailureReturnsApology(t *testing.T) {
	f := newFixture(t)
	f.llm.On("Route", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("model overloaded")).Once()

	text, err := f.kernel.Run(context.Background(), "s1", "Find hotels in Paris")
	require.NoError(t, err)
	assert.Equal(t, "I encountered an error while processing your request: model overloaded. Let me try to help you in a different way.", text)
	assert.Len(t, f.threads.Load("s1"), 1)
}

func TestKernel_TimedOutRunStillSendsApology(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f.llm.On("Route", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { <-args.Get(0).(context.Context).Done() }).
		Return(nil, context.DeadlineExceeded).Once()

	evt := ingress.NewEvent("voice", ingress.TypeUserMessage, "voice:slow", "Find hotels in Paris", nil)
	require.NoError(t, f.kernel.Execute(ctx, &evt))

	require.Len(t, f.out.sent, 1)
	assert.True(t, strings.HasPrefix(f.out.sent[0], "voice:slow: I encountered an error"), f.out.sent[0])
	assert.Len(t, f.threads.Load("voice:slow"), 1)
}

func TestKernel_CancelledRunIsNotCheckpointed(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.llm.On("Route", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, context.Canceled).Once()

	_, err := f.kernel.Run(ctx, "s1", "Find hotels in Paris")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.threads.Load("s1"))
}

func TestKernel_SlashCommandsSkipModel(t *testing.T) {
	f := newFixture(t)
	f.threads.Save("s1", []contract.Message{{Role: contract.RoleUser, Content: "old"}})

	text, err := f.kernel.Run(context.Background(), "s1", "/reset")
	require.NoError(t, err)
	assert.Contains(t, text, "Conversation cleared")
	assert.Empty(t, f.threads.Load("s1"))

	text, err = f.kernel.Run(context.Background(), "s1", "/tools")
	require.NoError(t, err)
	assert.Contains(t, text, "flights_finder")
	assert.Contains(t, text, "hotels_finder")

	f.llm.AssertNotCalled(t, "Route", mock.Anything, mock.Anything, mock.Anything)
}

func TestKernel_RejectsEmptyInput(t *testing.T) {
	f := newFixture(t)
	_, err := f.kernel.Run(context.Background(), "", "hi")
	assert.Error(t, err)
	_, err = f.kernel.Run(context.Background(), "s", "  ")
	assert.Error(t, err)
}

func TestKernel_Lifecycle(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.kernel.Init(context.Background()))

	h, err := f.kernel.Health(context.Background())
	require.NoError(t, err)
	assert.False(t, h.Healthy)

	require.NoError(t, f.kernel.Start(context.Background()))
	h, _ = f.kernel.Health(context.Background())
	assert.True(t, h.Healthy)
	require.NoError(t, f.kernel.Stop(context.Background()))
}
