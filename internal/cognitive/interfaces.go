package cognitive

import (
	"context"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/model/contract"
)

// State is a step of the orchestration state machine.
type State string

const (
	StateDeciding       State = "DECIDING"
	StateExecutingTools State = "EXECUTING_TOOLS"
	StateDone           State = "DONE"
)

// LLMClient is the language-model capability behind the Decision Step.
// model.DefaultModelRouter satisfies it.
type LLMClient interface {
	Route(ctx context.Context, model string, req contract.CompletionRequest) (*contract.CompletionResponse, error)
}

// Decider produces exactly one assistant message for the conversation: either
// a terminal answer or a non-empty list of tool calls.
type Decider interface {
	Decide(ctx context.Context, conv *Conversation) (contract.Message, error)
}

// ToolRunner resolves and runs a single tool by name. tool.Runner satisfies it.
type ToolRunner interface {
	Execute(ctx context.Context, name string, args any) (any, error)
	Definitions() []contract.ToolDef
}

// ToolExecutor turns the pending calls of one assistant message into tool
// result messages, one per call and in call order. It never fails.
type ToolExecutor interface {
	Execute(ctx context.Context, calls []*contract.ToolCall) []contract.Message
}

// Result is the outcome of a completed run.
type Result struct {
	// Content is the formatted answer text.
	Content string
	// Final is the terminal assistant message.
	Final      contract.Message
	Iterations int
}
