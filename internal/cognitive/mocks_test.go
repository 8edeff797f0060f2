package cognitive

import (
	"context"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/model/contract"

	"github.com/stretchr/testify/mock"
)

type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Route(ctx context.Context, model string, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	args := m.Called(ctx, model, req)
	resp, _ := args.Get(0).(*contract.CompletionResponse)
	return resp, args.Error(1)
}

type MockToolRunner struct {
	mock.Mock
}

func (m *MockToolRunner) Execute(ctx context.Context, name string, input any) (any, error) {
	args := m.Called(ctx, name, input)
	return args.Get(0), args.Error(1)
}

func (m *MockToolRunner) Definitions() []contract.ToolDef {
	return []contract.ToolDef{{Name: "flights_finder"}, {Name: "hotels_finder"}}
}

// MockDecider replays scripted assistant messages.
type MockDecider struct {
	mock.Mock
}

func (m *MockDecider) Decide(ctx context.Context, conv *Conversation) (contract.Message, error) {
	args := m.Called(ctx, conv)
	msg, _ := args.Get(0).(contract.Message)
	return msg, args.Error(1)
}
