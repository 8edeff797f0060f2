package components

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/daemon"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/tool"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/travel"

	_ "github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/tool/builtin"
)

type ToolsOption func(*ToolsComponent)

// WithSearcher replaces the SerpAPI client behind the finder.
func WithSearcher(s travel.Searcher) ToolsOption {
	return func(t *ToolsComponent) { t.searcher = s }
}

// ToolsComponent builds the travel finder and the frozen tool catalog the
// assistant and the search endpoints share.
type ToolsComponent struct {
	cfg           *config.ToolsConfig
	telemetryComp *TelemetryComponent
	searcher      travel.Searcher

	finder   *travel.Finder
	registry *tool.Registry
	runner   *tool.Runner
	mu       sync.RWMutex
}

func NewToolsComponent(cfg *config.ToolsConfig, telemetryComp *TelemetryComponent, opts ...ToolsOption) *ToolsComponent {
	t := &ToolsComponent{cfg: cfg, telemetryComp: telemetryComp}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *ToolsComponent) Name() string {
	return "Tools"
}

func (t *ToolsComponent) Dependencies() []string {
	return []string{"Telemetry"}
}

func (t *ToolsComponent) Init(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cfg == nil {
		return fmt.Errorf("tools config not provided")
	}

	var finder *travel.Finder
	if t.searcher != nil {
		serp := t.cfg.SerpAPI
		finder = travel.NewFinder(t.searcher, travel.Locale{
			Language: serp.Language,
			Country:  serp.Country,
			Currency: serp.Currency,
			Stops:    serp.Stops,
		}, serp.MaxHotels)
	} else {
		var err error
		finder, err = travel.NewFinderFromConfig(t.cfg.SerpAPI)
		if err != nil {
			return fmt.Errorf("configure travel finder: %w", err)
		}
	}

	registry, err := tool.NewBuiltinRegistry(tool.BuiltinOptions{Finder: finder})
	if err != nil {
		return fmt.Errorf("build tool registry: %w", err)
	}

	t.finder = finder
	t.registry = registry
	t.runner = tool.NewRunner(registry, t.telemetryComp.Metrics())
	slog.Info("Tools initialized", "component", t.Name(), "tools", registry.Names())
	return nil
}

func (t *ToolsComponent) Start(ctx context.Context) error {
	return nil
}

func (t *ToolsComponent) Stop(ctx context.Context) error {
	return nil
}

// Health reports a missing SerpAPI key. Searches still answer with an
// error result in that case.
func (t *ToolsComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.runner == nil {
		return &daemon.ComponentHealth{Name: t.Name(), Healthy: false, Error: fmt.Errorf("not initialized")}, nil
	}
	if !t.finder.Available() {
		return &daemon.ComponentHealth{Name: t.Name(), Healthy: false, Error: fmt.Errorf("serpapi key not configured")}, nil
	}
	return &daemon.ComponentHealth{Name: t.Name(), Healthy: true}, nil
}

func (t *ToolsComponent) GetRunner() *tool.Runner {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.runner
}

func (t *ToolsComponent) GetRegistry() *tool.Registry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.registry
}
