package cognitive

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/logger"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/model/contract"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/tool"

	"golang.org/x/sync/errgroup"
)

const (
	// BadToolNameResult is the result content for a call naming an
	// unregistered tool. The model is expected to retry with a valid name.
	BadToolNameResult = "bad tool name, retry"
	toolErrorPrefix   = "Error invoking tool: "
)

type ExecutionOptions struct {
	Parallel    bool
	MaxParallel int
}

// ToolExecutionStep runs the pending calls of one assistant message. Failures
// become result text and never abort the other calls.
type ToolExecutionStep struct {
	runner ToolRunner
	opts   ExecutionOptions
}

func NewToolExecutionStep(runner ToolRunner, opts ExecutionOptions) *ToolExecutionStep {
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = config.DefaultOrchestratorMaxParallel
	}
	return &ToolExecutionStep{runner: runner, opts: opts}
}

func (s *ToolExecutionStep) Execute(ctx context.Context, calls []*contract.ToolCall) []contract.Message {
	results := make([]contract.Message, len(calls))

	if !s.opts.Parallel || len(calls) < 2 {
		for i, call := range calls {
			results[i] = s.executeOne(ctx, call)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(s.opts.MaxParallel)
	for i, call := range calls {
		g.Go(func() error {
			results[i] = s.executeOne(ctx, call)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *ToolExecutionStep) executeOne(ctx context.Context, call *contract.ToolCall) contract.Message {
	log := logger.FromContext(ctx)
	msg := contract.Message{
		Role:       contract.RoleTool,
		ToolCallID: call.ID,
		Name:       call.Name,
	}

	log.Info("Executing tool", "tool", call.Name, "call_id", call.ID)
	log.Debug("Tool input", "tool", call.Name, "input", call.Input)

	var args any
	if strings.TrimSpace(call.Input) != "" {
		args = json.RawMessage(call.Input)
	}

	out, err := s.runner.Execute(ctx, call.Name, args)
	switch {
	case errors.Is(err, tool.ErrToolNotFound):
		log.Warn("Bad tool name", "tool", call.Name)
		msg.Content = BadToolNameResult
	case err != nil:
		msg.Content = toolErrorPrefix + err.Error()
	default:
		content, rerr := renderToolResult(out)
		if rerr != nil {
			msg.Content = toolErrorPrefix + rerr.Error()
			break
		}
		msg.Content = content
	}
	return msg
}

// renderToolResult encodes structured results as JSON. Plain strings pass
// through unchanged.
func renderToolResult(out any) (string, error) {
	switch v := out.(type) {
	case nil:
		return "null", nil
	case string:
		return v, nil
	case json.RawMessage:
		return string(v), nil
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
