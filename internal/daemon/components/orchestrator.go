package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/cognitive"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/daemon"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/egress"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/model"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/orchestrator"
)

type OrchestratorOption func(*OrchestratorComponent)

// WithLLM skips the model router and decides with llm instead.
func WithLLM(llm cognitive.LLMClient) OrchestratorOption {
	return func(o *OrchestratorComponent) { o.llm = llm }
}

type OrchestratorComponent struct {
	kernel        *orchestrator.DefaultKernel
	egress        *egress.DefaultEgress
	llm           cognitive.LLMClient
	cfg           *config.Config
	sessionsComp  *SessionsComponent
	toolsComp     *ToolsComponent
	telemetryComp *TelemetryComponent
}

func NewOrchestratorComponent(cfg *config.Config, sessionsComp *SessionsComponent, toolsComp *ToolsComponent, telemetryComp *TelemetryComponent, opts ...OrchestratorOption) *OrchestratorComponent {
	o := &OrchestratorComponent{
		cfg:           cfg,
		sessionsComp:  sessionsComp,
		toolsComp:     toolsComp,
		telemetryComp: telemetryComp,
		egress:        egress.NewEgress(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *OrchestratorComponent) Name() string {
	return "Orchestrator"
}

func (o *OrchestratorComponent) Dependencies() []string {
	return []string{"Sessions", "Tools", "Telemetry"}
}

func (o *OrchestratorComponent) Init(ctx context.Context) error {
	if o.sessionsComp == nil || o.toolsComp == nil {
		return fmt.Errorf("required component dependencies not provided")
	}

	threads := o.sessionsComp.GetStore()
	runner := o.toolsComp.GetRunner()
	if threads == nil || runner == nil {
		return fmt.Errorf("required dependencies not initialized")
	}

	metrics := o.telemetryComp.Metrics()
	llm := o.llm
	if llm == nil {
		router, err := model.NewModelRouter(o.cfg.Models, model.WithMetrics(metrics))
		if err != nil {
			return fmt.Errorf("failed to initialize model router: %w", err)
		}
		slog.Info("Model router initialized", "component", o.Name(), "models", router.ListModels())
		llm = router
	}

	kernel, err := orchestrator.NewKernel(o.cfg.Orchestrator, o.cfg.Models.Default, llm, runner, threads, o.egress, metrics)
	if err != nil {
		return fmt.Errorf("failed to create kernel: %w", err)
	}
	o.kernel = kernel

	if err := o.kernel.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize kernel: %w", err)
	}

	slog.Info("Orchestrator kernel initialized", "component", o.Name())
	return nil
}

func (o *OrchestratorComponent) Start(ctx context.Context) error {
	if o.kernel == nil {
		return fmt.Errorf("kernel not initialized")
	}

	if err := o.kernel.Start(ctx); err != nil {
		return fmt.Errorf("failed to start kernel: %w", err)
	}

	slog.Info("Orchestrator started", "component", o.Name())
	return nil
}

func (o *OrchestratorComponent) Stop(ctx context.Context) error {
	if o.kernel == nil {
		slog.Info("Kernel not initialized, skipping stop", "component", o.Name())
		return nil
	}

	if err := o.kernel.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop kernel: %w", err)
	}

	slog.Info("Orchestrator stopped", "component", o.Name())
	return nil
}

func (o *OrchestratorComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	if o.kernel == nil {
		return &daemon.ComponentHealth{
			Name:    o.Name(),
			Healthy: false,
			Error:   fmt.Errorf("not initialized"),
		}, nil
	}

	health, err := o.kernel.Health(ctx)
	if err != nil {
		return nil, err
	}

	return &daemon.ComponentHealth{
		Name:    o.Name(),
		Healthy: health.Healthy,
		Error:   health.Error,
	}, nil
}

// GetKernel returns nil until Init has run.
func (o *OrchestratorComponent) GetKernel() *orchestrator.DefaultKernel {
	return o.kernel
}

// GetEgress is available before Init so adapters can register outputs.
func (o *OrchestratorComponent) GetEgress() *egress.DefaultEgress {
	return o.egress
}
