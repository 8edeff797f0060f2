package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/concurrency"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/logger"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/model/contract"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/observe"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ExecutionError carries a tool's own failure. Its message is the tool's
// message unchanged; errors.Is matches both ErrToolFailed and the cause.
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string {
	return e.Err.Error()
}

func (e *ExecutionError) Unwrap() []error {
	return []error{ErrToolFailed, e.Err}
}

type Runner struct {
	registry *Registry
	metrics  *observe.Metrics
}

func NewRunner(registry *Registry, metrics *observe.Metrics) *Runner {
	return &Runner{registry: registry, metrics: metrics}
}

func (r *Runner) GetDescriptors() []ToolDescriptor {
	if r == nil || r.registry == nil {
		return nil
	}
	return r.registry.GetDescriptors()
}

func (r *Runner) Definitions() []contract.ToolDef {
	return r.registry.Definitions()
}

// Execute resolves name, validates args and runs the tool. Unknown names
// return ErrToolNotFound; validation failures, tool errors and panics return
// an *ExecutionError.
func (r *Runner) Execute(ctx context.Context, name string, args any) (result any, err error) {
	log := logger.FromContext(ctx)

	t, err := r.registry.Lookup(name)
	if err != nil {
		log.Warn("Unknown tool requested", "tool", name)
		r.metrics.RecordToolCall(ctx, NormalizeToolName(name), observe.StatusNotFound, 0)
		return nil, err
	}
	resolved := NormalizeToolName(t.Name())

	ctx, span := observe.StartSpan(ctx, "tool "+resolved, trace.WithAttributes(attribute.String("tool", resolved)))
	start := time.Now()
	defer func() {
		duration := time.Since(start)
		status := observe.StatusOK
		if err != nil {
			status = observe.StatusError
			log.Warn("Tool execution failed", "tool", resolved, "error", err, "duration", duration)
		} else {
			log.Info("Tool execution success", "tool", resolved, "duration", duration)
		}
		r.metrics.RecordToolCall(ctx, resolved, status, duration)
		observe.EndSpan(span, err)
	}()

	if verr := ValidateArgs(t.Parameters(), args); verr != nil {
		return nil, &ExecutionError{Tool: resolved, Err: fmt.Errorf("invalid input: %w", verr)}
	}

	log.Debug("Executing tool", "tool", resolved)
	result, err = r.invoke(ctx, t, args)
	if err != nil {
		return nil, &ExecutionError{Tool: resolved, Err: err}
	}
	return result, nil
}

func (r *Runner) invoke(ctx context.Context, t Tool, args any) (result any, err error) {
	defer concurrency.Recover(func(p interface{}) {
		err = fmt.Errorf("panic: %v", p)
	})
	return t.Execute(ctx, args)
}
