package cognitive

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/logger"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/model/contract"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/observe"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const dateLayout = "Monday, January 02, 2006"

type DecisionPromptConfig struct {
	Model string
	// System is the fixed system prompt.
	System string
	// Instructions may contain {{date}}, replaced with the current date on
	// every call.
	Instructions string
}

// DecisionStep asks the model for the next assistant message. The system
// prompt is prepended per call and never stored in the conversation.
type DecisionStep struct {
	llm       LLMClient
	tools     []contract.ToolDef
	promptCfg DecisionPromptConfig
	metrics   *observe.Metrics
	now       func() time.Time
}

func NewDecisionStep(llm LLMClient, tools []contract.ToolDef, promptCfg DecisionPromptConfig, metrics *observe.Metrics) *DecisionStep {
	if strings.TrimSpace(promptCfg.System) == "" {
		promptCfg.System = config.DefaultSystemPrompt
	}
	if strings.TrimSpace(promptCfg.Instructions) == "" {
		promptCfg.Instructions = config.DefaultAssistantInstructions
	}

	return &DecisionStep{
		llm:       llm,
		tools:     tools,
		promptCfg: promptCfg,
		metrics:   metrics,
		now:       time.Now,
	}
}

func (d *DecisionStep) Decide(ctx context.Context, conv *Conversation) (msg contract.Message, err error) {
	log := logger.FromContext(ctx)

	ctx, span := observe.StartSpan(ctx, "decision", trace.WithAttributes(
		attribute.String("model", d.promptCfg.Model),
		attribute.Int("messages", conv.Len()),
	))
	start := time.Now()
	defer func() {
		status := observe.StatusOK
		if err != nil {
			status = observe.StatusError
			if errors.Is(err, context.Canceled) {
				status = observe.StatusCancelled
			}
		}
		d.metrics.RecordDecision(ctx, d.promptCfg.Model, status, time.Since(start))
		observe.EndSpan(span, err)
	}()

	messages := make([]contract.Message, 0, conv.Len()+1)
	messages = append(messages, contract.Message{
		Role:    contract.RoleSystem,
		Content: d.buildSystemPrompt(),
	})
	messages = append(messages, conv.Messages()...)

	resp, err := d.llm.Route(ctx, d.promptCfg.Model, contract.CompletionRequest{
		Model:    d.promptCfg.Model,
		Messages: messages,
		Tools:    d.tools,
	})
	if err != nil {
		return contract.Message{}, &RunError{Kind: KindDecisionStepFailure, Message: "decision step failed", Cause: err}
	}
	if resp == nil {
		return contract.Message{}, &RunError{Kind: KindDecisionStepFailure, Message: "decision step returned no response"}
	}

	log.Debug("Decision received", "content_len", len(resp.Content), "tool_calls", len(resp.ToolCalls))

	msg = contract.Message{
		Role:    contract.RoleAssistant,
		Content: resp.Content,
	}
	seen := make(map[string]struct{}, len(resp.ToolCalls))
	for _, tc := range resp.ToolCalls {
		if tc == nil {
			continue
		}
		call := *tc
		// Results are matched by id, so blank and repeated ids get a fresh one.
		if _, dup := seen[call.ID]; dup || strings.TrimSpace(call.ID) == "" {
			call.ID = "call_" + uuid.NewString()
		}
		seen[call.ID] = struct{}{}
		msg.ToolCalls = append(msg.ToolCalls, &call)
	}
	return msg, nil
}

func (d *DecisionStep) buildSystemPrompt() string {
	var sb strings.Builder
	sb.WriteString(d.promptCfg.System)
	instructions := strings.ReplaceAll(d.promptCfg.Instructions, "{{date}}", d.now().Format(dateLayout))
	if strings.TrimSpace(instructions) != "" {
		sb.WriteString("\n\n")
		sb.WriteString(instructions)
	}
	return sb.String()
}
