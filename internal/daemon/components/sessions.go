package components

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/daemon"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/session"
)

// SessionsComponent owns the conversation threads and the idle sweeper.
type SessionsComponent struct {
	cfg           *config.SessionConfig
	telemetryComp *TelemetryComponent
	store         *session.Store
	sweeper       *session.Sweeper
	initialized   bool
	mu            sync.RWMutex
}

func NewSessionsComponent(cfg *config.SessionConfig, telemetryComp *TelemetryComponent) *SessionsComponent {
	return &SessionsComponent{cfg: cfg, telemetryComp: telemetryComp}
}

func (s *SessionsComponent) Name() string {
	return "Sessions"
}

func (s *SessionsComponent) Dependencies() []string {
	return []string{"Telemetry"}
}

func (s *SessionsComponent) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg == nil {
		return fmt.Errorf("session config not provided")
	}

	store, err := session.NewStore(*s.cfg, s.telemetryComp.Metrics())
	if err != nil {
		return fmt.Errorf("create session store: %w", err)
	}
	s.store = store
	s.sweeper = session.NewSweeper(store, s.cfg.SweepSchedule)
	s.initialized = true
	slog.Info("Sessions initialized", "component", s.Name())
	return nil
}

func (s *SessionsComponent) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return fmt.Errorf("Sessions not initialized")
	}
	return s.sweeper.Start(ctx)
}

func (s *SessionsComponent) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sweeper == nil {
		return nil
	}
	return s.sweeper.Stop(ctx)
}

func (s *SessionsComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return &daemon.ComponentHealth{Name: s.Name(), Healthy: false, Error: fmt.Errorf("not initialized")}, nil
	}
	if !s.sweeper.Running() {
		return &daemon.ComponentHealth{Name: s.Name(), Healthy: false, Error: fmt.Errorf("sweeper not running")}, nil
	}
	return &daemon.ComponentHealth{Name: s.Name(), Healthy: true}, nil
}

func (s *SessionsComponent) GetStore() *session.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}
