package cognitive

import (
	"context"
	"errors"
	"fmt"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/logger"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/model/contract"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/observe"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type RunErrorKind string

const (
	KindDecisionStepFailure RunErrorKind = "decision_step_failure"
	KindIterationLimit      RunErrorKind = "iteration_limit"
	KindCancelled           RunErrorKind = "cancelled"
)

// RunError ends a run. Tool failures never produce one; they stay in the
// conversation as result text.
type RunError struct {
	Kind    RunErrorKind
	Message string
	Cause   error
}

func (e *RunError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *RunError) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err is a *RunError of the given kind.
func IsKind(err error, kind RunErrorKind) bool {
	var runErr *RunError
	return errors.As(err, &runErr) && runErr.Kind == kind
}

// Orchestrator alternates the Decision Step and the Tool Execution Step until
// the model answers without tool calls.
type Orchestrator struct {
	decider       Decider
	executor      ToolExecutor
	maxIterations int
	fallback      string
	metrics       *observe.Metrics
}

type OrchestratorOptions struct {
	// MaxIterations caps the number of decision steps per run.
	MaxIterations int
	// Fallback is the answer text used when the terminal message is empty.
	Fallback string
	Metrics  *observe.Metrics
}

func NewOrchestrator(decider Decider, executor ToolExecutor, opts OrchestratorOptions) *Orchestrator {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = config.DefaultOrchestratorMaxIterations
	}
	if opts.Fallback == "" {
		opts.Fallback = config.DefaultFallbackResponse
	}
	return &Orchestrator{
		decider:       decider,
		executor:      executor,
		maxIterations: opts.MaxIterations,
		fallback:      opts.Fallback,
		metrics:       opts.Metrics,
	}
}

// Run drives conv from DECIDING to DONE. conv must end with the seed user
// message. Messages appended before an error stay in conv; every assistant
// message with tool calls is followed by all of its results.
func (o *Orchestrator) Run(ctx context.Context, conv *Conversation) (result *Result, err error) {
	log := logger.FromContext(ctx)

	ctx, span := observe.StartSpan(ctx, "orchestrator.run", trace.WithAttributes(
		attribute.Int("history", conv.Len()),
	))
	defer func() {
		o.metrics.RecordRun(ctx, runStatus(err))
		observe.EndSpan(span, err)
	}()

	state := StateDeciding
	iterations := 0
	var current contract.Message

	for {
		switch state {
		case StateDeciding:
			if err := interrupted(ctx); err != nil {
				return nil, err
			}
			if iterations >= o.maxIterations {
				log.Warn("Iteration limit reached", "max", o.maxIterations)
				return nil, &RunError{Kind: KindIterationLimit, Message: fmt.Sprintf("no answer after %d decision steps", o.maxIterations)}
			}
			iterations++
			log.Debug("Orchestrator turn", "state", state, "iteration", iterations, "max", o.maxIterations)

			msg, err := o.decider.Decide(ctx, conv)
			if err != nil {
				if ctxErr := interrupted(ctx); ctxErr != nil {
					return nil, ctxErr
				}
				log.Error("Decision step failed", "error", err)
				var runErr *RunError
				if !errors.As(err, &runErr) {
					err = &RunError{Kind: KindDecisionStepFailure, Message: "decision step failed", Cause: err}
				}
				return nil, err
			}
			if err := conv.Append(msg); err != nil {
				return nil, err
			}
			current = msg

			if len(msg.ToolCalls) == 0 {
				state = StateDone
			} else {
				state = StateExecutingTools
			}

		case StateExecutingTools:
			log.Debug("Orchestrator turn", "state", state, "tool_calls", len(current.ToolCalls))
			results := o.executor.Execute(ctx, current.ToolCalls)
			if err := conv.Append(results...); err != nil {
				return nil, err
			}
			state = StateDeciding

		case StateDone:
			log.Info("Final answer reached", "iterations", iterations)
			return &Result{
				Content:    FormatResponse(current, o.fallback),
				Final:      current,
				Iterations: iterations,
			}, nil
		}
	}
}

// interrupted reports why ctx ended. Only an explicit cancel is KindCancelled;
// an expired run deadline is a failure the user gets an apology for.
func interrupted(ctx context.Context) error {
	err := ctx.Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return &RunError{Kind: KindDecisionStepFailure, Message: "run timed out", Cause: err}
	default:
		return &RunError{Kind: KindCancelled, Message: "run cancelled", Cause: err}
	}
}

func runStatus(err error) string {
	switch {
	case err == nil:
		return observe.StatusOK
	case IsKind(err, KindCancelled):
		return observe.StatusCancelled
	case IsKind(err, KindIterationLimit):
		return observe.StatusLimitHit
	default:
		return observe.StatusError
	}
}
