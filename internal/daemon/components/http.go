package components

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/adapter"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/api"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/daemon"
)

var defaultHTTPDependencies = []string{"Tools", "Orchestrator", "Adapters", "Telemetry"}

type HTTPServerComponent struct {
	daemon        *daemon.Daemon
	cfg           *config.Config
	toolsComp     *ToolsComponent
	orchComp      *OrchestratorComponent
	telemetryComp *TelemetryComponent
	voice         *adapter.VoiceAdapter
	dependencies  []string

	server      *api.Server
	initialized bool
	started     bool
	mu          sync.RWMutex
	startTime   time.Time
}

// NewHTTPServerComponent serves the travel API. voice may be nil when the
// websocket transport is disabled.
func NewHTTPServerComponent(d *daemon.Daemon, cfg *config.Config, toolsComp *ToolsComponent, orchComp *OrchestratorComponent, telemetryComp *TelemetryComponent, voice *adapter.VoiceAdapter) *HTTPServerComponent {
	return NewHTTPServerComponentWithDependencies(d, cfg, toolsComp, orchComp, telemetryComp, voice, defaultHTTPDependencies)
}

func NewHTTPServerComponentWithDependencies(d *daemon.Daemon, cfg *config.Config, toolsComp *ToolsComponent, orchComp *OrchestratorComponent, telemetryComp *TelemetryComponent, voice *adapter.VoiceAdapter, dependencies []string) *HTTPServerComponent {
	return &HTTPServerComponent{
		daemon:        d,
		cfg:           cfg,
		toolsComp:     toolsComp,
		orchComp:      orchComp,
		telemetryComp: telemetryComp,
		voice:         voice,
		dependencies:  append([]string(nil), dependencies...),
	}
}

func (h *HTTPServerComponent) Name() string {
	return "HTTPServer"
}

func (h *HTTPServerComponent) Dependencies() []string {
	return append([]string(nil), h.dependencies...)
}

func (h *HTTPServerComponent) Init(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cfg == nil {
		return fmt.Errorf("config not provided")
	}

	opts := api.Options{
		Metrics:        h.telemetryComp.Metrics(),
		MetricsEnabled: h.cfg.Observe.MetricsEnabled,
		MetricsPath:    h.cfg.Observe.MetricsPath,
		VoicePath:      h.cfg.Adapters.Voice.Path,
	}
	if h.toolsComp != nil {
		if runner := h.toolsComp.GetRunner(); runner != nil {
			opts.Tools = runner
		}
	}
	if h.orchComp != nil {
		if kernel := h.orchComp.GetKernel(); kernel != nil {
			opts.Chat = kernel
		}
	}
	if h.voice != nil {
		opts.Voice = h.voice
	}
	if h.daemon != nil {
		opts.Health = h.componentReport
	}

	server, err := api.NewServer(h.cfg.Server, opts)
	if err != nil {
		return err
	}
	h.server = server

	h.initialized = true
	slog.Info("HTTPServer initialized", "component", h.Name(), "port", h.cfg.Server.Port)
	return nil
}

func (h *HTTPServerComponent) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.initialized {
		return fmt.Errorf("HTTPServer not initialized")
	}

	if err := h.server.Start(); err != nil {
		return err
	}

	h.started = true
	h.startTime = time.Now()
	slog.Info("HTTPServer started", "component", h.Name(), "addr", h.server.Addr())
	return nil
}

func (h *HTTPServerComponent) Stop(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		slog.Info("HTTPServer not started, skipping stop", "component", h.Name())
		return nil
	}

	slog.Info("Stopping HTTPServer...", "component", h.Name())
	if err := h.server.Shutdown(ctx); err != nil {
		slog.Error("HTTPServer shutdown error", "component", h.Name(), "error", err)
		return err
	}

	h.started = false
	slog.Info("HTTPServer stopped", "component", h.Name())
	return nil
}

func (h *HTTPServerComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.initialized {
		return &daemon.ComponentHealth{
			Name:    h.Name(),
			Healthy: false,
			Error:   fmt.Errorf("not initialized"),
		}, nil
	}

	if !h.started {
		return &daemon.ComponentHealth{
			Name:    h.Name(),
			Healthy: false,
			Error:   fmt.Errorf("not started"),
		}, nil
	}

	return &daemon.ComponentHealth{
		Name:    h.Name(),
		Healthy: true,
		Error:   nil,
	}, nil
}

// Addr is the bound listen address once started.
func (h *HTTPServerComponent) Addr() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.server == nil {
		return ""
	}
	return h.server.Addr()
}

// Handler exposes the routes for in-process tests.
func (h *HTTPServerComponent) Handler() http.Handler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.server == nil {
		return nil
	}
	return h.server.Handler()
}

func (h *HTTPServerComponent) componentReport(ctx context.Context) map[string]error {
	report := make(map[string]error)
	for name, ch := range h.daemon.ComponentHealth() {
		if name == h.Name() {
			continue
		}
		switch {
		case ch.Healthy:
			report[name] = nil
		case ch.Error != nil:
			report[name] = ch.Error
		default:
			report[name] = fmt.Errorf("unhealthy")
		}
	}
	return report
}
