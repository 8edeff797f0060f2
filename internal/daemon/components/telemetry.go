package components

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/daemon"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/observe"
)

// TelemetryComponent installs the OpenTelemetry providers when metrics are
// enabled and hands out the shared instruments. The exporter binds to the
// default Prometheus registerer, so only one instance per process may
// enable metrics.
type TelemetryComponent struct {
	cfg      *config.ObserveConfig
	version  string
	metrics  *observe.Metrics
	shutdown func(context.Context) error
	mu       sync.RWMutex
}

func NewTelemetryComponent(cfg *config.ObserveConfig, version string) *TelemetryComponent {
	return &TelemetryComponent{cfg: cfg, version: version}
}

func (t *TelemetryComponent) Name() string {
	return "Telemetry"
}

func (t *TelemetryComponent) Dependencies() []string {
	return []string{}
}

func (t *TelemetryComponent) Init(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cfg != nil && t.cfg.MetricsEnabled {
		serviceName := t.cfg.ServiceName
		if serviceName == "" {
			serviceName = config.DefaultObserveServiceName
		}
		shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
			ServiceName:    serviceName,
			ServiceVersion: t.version,
		})
		if err != nil {
			return fmt.Errorf("init telemetry provider: %w", err)
		}
		t.shutdown = shutdown
	}

	t.metrics = observe.DefaultMetrics()
	slog.Info("Telemetry initialized", "component", t.Name(), "exporter", t.shutdown != nil)
	return nil
}

func (t *TelemetryComponent) Start(ctx context.Context) error {
	return nil
}

func (t *TelemetryComponent) Stop(ctx context.Context) error {
	t.mu.Lock()
	shutdown := t.shutdown
	t.shutdown = nil
	t.mu.Unlock()

	if shutdown == nil {
		return nil
	}
	if err := shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown telemetry: %w", err)
	}
	return nil
}

func (t *TelemetryComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.metrics == nil {
		return &daemon.ComponentHealth{Name: t.Name(), Healthy: false, Error: fmt.Errorf("not initialized")}, nil
	}
	return &daemon.ComponentHealth{Name: t.Name(), Healthy: true}, nil
}

// Metrics returns the shared instruments, or the global defaults before Init.
func (t *TelemetryComponent) Metrics() *observe.Metrics {
	if t == nil {
		return observe.DefaultMetrics()
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.metrics == nil {
		return observe.DefaultMetrics()
	}
	return t.metrics
}
