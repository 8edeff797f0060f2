package components

import (
	"fmt"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/adapter"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/cognitive"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/daemon"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/travel"
)

type StackOptions struct {
	Version string
	// HTTP adds the API server, the voice socket and the instance lock.
	HTTP bool
	// CLI adds the terminal adapter for interactive chat.
	CLI bool

	LLM      cognitive.LLMClient
	Searcher travel.Searcher
}

// Stack is every component of one running assistant.
type Stack struct {
	Telemetry    *TelemetryComponent
	Lock         *InstanceLockComponent
	Sessions     *SessionsComponent
	Tools        *ToolsComponent
	Orchestrator *OrchestratorComponent
	Ingress      *IngressComponent
	Workers      *WorkersComponent
	Adapters     *AdaptersComponent
	HTTP         *HTTPServerComponent

	AdapterManager *adapter.RuntimeManager
}

// Register builds the component graph for cfg and adds it to d.
func Register(d *daemon.Daemon, cfg *config.Config, opts StackOptions) (*Stack, error) {
	if d == nil || cfg == nil {
		return nil, fmt.Errorf("daemon and config are required")
	}

	s := &Stack{}
	s.Telemetry = NewTelemetryComponent(&cfg.Observe, opts.Version)
	if opts.HTTP {
		s.Lock = NewInstanceLockComponent(d.InstanceID(), &cfg.Daemon)
	}
	s.Sessions = NewSessionsComponent(&cfg.Session, s.Telemetry)

	var toolOpts []ToolsOption
	if opts.Searcher != nil {
		toolOpts = append(toolOpts, WithSearcher(opts.Searcher))
	}
	s.Tools = NewToolsComponent(&cfg.Tools, s.Telemetry, toolOpts...)

	var orchOpts []OrchestratorOption
	if opts.LLM != nil {
		orchOpts = append(orchOpts, WithLLM(opts.LLM))
	}
	s.Orchestrator = NewOrchestratorComponent(cfg, s.Sessions, s.Tools, s.Telemetry, orchOpts...)
	s.Ingress = NewIngressComponent(&cfg.Ingress)
	s.Workers = NewWorkersComponent(&cfg.Worker, s.Ingress, s.Orchestrator, s.Sessions)

	adaptersCfg := cfg.Adapters
	if !opts.HTTP {
		adaptersCfg.Voice.Enabled = false
	}
	greeting := cfg.Orchestrator.Greeting
	if greeting == "" {
		greeting = config.DefaultGreeting
	}
	manager, err := adapter.NewRuntimeManager(adaptersCfg, s.Ingress.Submit, adapter.RuntimeAdapterOptions{
		IncludeCLI:          opts.CLI,
		IncludeHTTPNull:     opts.HTTP,
		RequireSlackSecrets: true,
		Greeting:            greeting,
		OnVoiceClose:        s.Workers.CloseSession,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure adapters: %w", err)
	}
	s.AdapterManager = manager
	s.Adapters = NewAdaptersComponent(manager, s.Orchestrator)

	if opts.HTTP {
		s.HTTP = NewHTTPServerComponent(d, cfg, s.Tools, s.Orchestrator, s.Telemetry, manager.Voice())
	}

	d.AddComponent(s.Telemetry)
	if s.Lock != nil {
		d.AddComponent(s.Lock)
	}
	d.AddComponent(s.Sessions)
	d.AddComponent(s.Tools)
	d.AddComponent(s.Orchestrator)
	d.AddComponent(s.Ingress)
	d.AddComponent(s.Workers)
	d.AddComponent(s.Adapters)
	if s.HTTP != nil {
		d.AddComponent(s.HTTP)
	}
	return s, nil
}
