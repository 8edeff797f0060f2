package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/cognitive"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/egress"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/errors"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/ingress"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/logger"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/model/contract"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/observe"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/orchestrator/command"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/session"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/tool"
)

// replyGrace bounds delivery of a reply produced after the run context ended.
const replyGrace = 5 * time.Second

// Kernel orchestrates the high-level request flow
type Kernel interface {
	// Execute runs one queued event and sends the reply through egress.
	Execute(ctx context.Context, evt *ingress.Event) error
	// Run answers text for sessionID synchronously.
	Run(ctx context.Context, sessionID, text string) (string, error)
	Init(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) (*ComponentHealth, error)
}

type ComponentHealth struct {
	Name    string
	Healthy bool
	Error   error
}

type DefaultKernel struct {
	running bool
	mu      sync.RWMutex

	orch      *cognitive.Orchestrator
	threads   *session.Store
	command   command.Handler
	egress    egress.Egress
	responses cognitive.Responses
}

// NewKernel wires the orchestration loop: the decision step over llm, tool
// execution over runner, and per-session threads in threads. out may be nil
// when only Run is used.
func NewKernel(
	cfg config.OrchestratorConfig,
	modelName string,
	llm cognitive.LLMClient,
	runner *tool.Runner,
	threads *session.Store,
	out egress.Egress,
	metrics *observe.Metrics,
) (*DefaultKernel, error) {
	if llm == nil {
		return nil, fmt.Errorf("kernel requires a model router")
	}
	if runner == nil || threads == nil {
		return nil, fmt.Errorf("kernel requires a tool runner and a thread store")
	}

	decider := cognitive.NewDecisionStep(llm, runner.Definitions(), cognitive.DecisionPromptConfig{
		Model:        modelName,
		System:       cfg.SystemPrompt,
		Instructions: cfg.AssistantInstructions,
	}, metrics)
	executor := cognitive.NewToolExecutionStep(runner, cognitive.ExecutionOptions{
		Parallel:    cfg.ParallelTools,
		MaxParallel: cfg.MaxParallelTools,
	})
	orch := cognitive.NewOrchestrator(decider, executor, cognitive.OrchestratorOptions{
		MaxIterations: cfg.MaxIterations,
		Fallback:      cfg.FallbackResponse,
		Metrics:       metrics,
	})

	return &DefaultKernel{
		orch:    orch,
		threads: threads,
		command: command.NewHandler(threads, runner),
		egress:  out,
		responses: cognitive.Responses{
			IterationLimit: cfg.IterationLimitResponse,
			ErrorTemplate:  cfg.ErrorResponseTemplate,
		},
	}, nil
}

func (k *DefaultKernel) Init(ctx context.Context) error {
	slog.Info("Kernel initialized")
	return nil
}

func (k *DefaultKernel) Start(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.running {
		return nil
	}
	k.running = true
	slog.Info("Kernel started")
	return nil
}

func (k *DefaultKernel) Stop(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.running {
		return nil
	}
	k.running = false
	slog.Info("Kernel stopped")
	return nil
}

func (k *DefaultKernel) Health(ctx context.Context) (*ComponentHealth, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	status := &ComponentHealth{
		Name:    "Kernel",
		Healthy: k.running,
	}
	if !k.running {
		status.Error = fmt.Errorf("kernel not running")
	}
	return status, nil
}

func (k *DefaultKernel) Execute(ctx context.Context, evt *ingress.Event) error {
	ctx = logger.WithTraceID(ctx, evt.ID)
	ctx = logger.WithSessionID(ctx, evt.SessionID)
	logger.FromContext(ctx).Info("Kernel executing event", "type", evt.Type, "source", evt.Source)

	text, err := k.Run(ctx, evt.SessionID, evt.Content)
	if err != nil {
		return err
	}
	if k.egress == nil {
		return errors.Internal("egress not configured")
	}
	// A run that hit its deadline still owes the user its apology.
	sendCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), replyGrace)
		defer cancel()
	}
	return k.egress.Send(sendCtx, evt.Source, evt.SessionID, text)
}

// Run answers one user turn. Slash commands are handled without a model call.
// A failed run still returns the apology text with a nil error; only
// cancellation and invalid input return an error, and a cancelled run is not
// checkpointed.
func (k *DefaultKernel) Run(ctx context.Context, sessionID, text string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", errors.InvalidInput("session id is required")
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.InvalidInput("message is empty")
	}
	if logger.GetSessionID(ctx) == "" {
		ctx = logger.WithSessionID(ctx, sessionID)
	}
	log := logger.FromContext(ctx)

	if k.command.CanHandle(text) {
		msg, err := k.command.Execute(ctx, sessionID, text)
		if err != nil {
			log.Warn("Slash command failed", "error", err)
		}
		return msg, nil
	}

	conv := cognitive.NewConversation(k.threads.Load(sessionID))
	if err := conv.Append(contract.Message{Role: contract.RoleUser, Content: text}); err != nil {
		return "", err
	}

	result, err := k.orch.Run(ctx, conv)
	if err != nil {
		if cognitive.IsKind(err, cognitive.KindCancelled) {
			log.Info("Run cancelled, thread not checkpointed")
			return "", err
		}
		log.Error("Run failed", "error", err)
		k.threads.Save(sessionID, conv.Messages())
		return k.responses.FailureText(err), nil
	}

	k.threads.Save(sessionID, conv.Messages())
	log.Info("Run completed", "iterations", result.Iterations, "appended", len(conv.Appended()))
	return result.Content, nil
}
