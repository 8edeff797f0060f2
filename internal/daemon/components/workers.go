package components

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/concurrency"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/daemon"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/worker"
)

type WorkersComponent struct {
	pool             *worker.Pool
	ingressComp      *IngressComponent
	orchestratorComp *OrchestratorComponent
	sessionsComp     *SessionsComponent
	cfg              *config.WorkerConfig
	locks            *concurrency.SessionLockManager
	initialized      bool
	started          bool
	mu               sync.RWMutex
	startTime        time.Time
}

func NewWorkersComponent(cfg *config.WorkerConfig, ingComp *IngressComponent, orchComp *OrchestratorComponent, sessionsComp *SessionsComponent) *WorkersComponent {
	return &WorkersComponent{
		ingressComp:      ingComp,
		orchestratorComp: orchComp,
		sessionsComp:     sessionsComp,
		cfg:              cfg,
		locks:            concurrency.NewSessionLockManager(),
	}
}

func (w *WorkersComponent) Name() string {
	return "Workers"
}

func (w *WorkersComponent) Dependencies() []string {
	return []string{"Ingress", "Orchestrator", "Sessions"}
}

func (w *WorkersComponent) Init(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ingressComp == nil || w.orchestratorComp == nil {
		return fmt.Errorf("required component dependencies not provided")
	}
	if w.cfg == nil {
		return fmt.Errorf("worker config not provided")
	}

	ing := w.ingressComp.GetIngress()
	kernel := w.orchestratorComp.GetKernel()
	if ing == nil || kernel == nil {
		return fmt.Errorf("required dependencies not initialized")
	}

	pool, err := worker.NewPool(*w.cfg, ing.Queue(), kernel, w.locks)
	if err != nil {
		return err
	}
	w.pool = pool

	w.initialized = true
	slog.Info("Workers initialized", "component", w.Name())
	return nil
}

func (w *WorkersComponent) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.initialized {
		return fmt.Errorf("Workers not initialized")
	}

	if err := w.pool.Start(ctx); err != nil {
		return fmt.Errorf("start worker pool: %w", err)
	}

	w.started = true
	w.startTime = time.Now()
	slog.Info("Workers started", "component", w.Name())
	return nil
}

func (w *WorkersComponent) Stop(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		slog.Info("Workers not started, skipping stop", "component", w.Name())
		return nil
	}

	slog.Info("Stopping Workers...", "component", w.Name())
	err := w.pool.Stop(ctx)
	w.started = false
	if err != nil {
		return err
	}
	slog.Info("Workers stopped", "component", w.Name())
	return nil
}

func (w *WorkersComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if !w.initialized {
		return &daemon.ComponentHealth{
			Name:    w.Name(),
			Healthy: false,
			Error:   fmt.Errorf("not initialized"),
		}, nil
	}

	if !w.started {
		return &daemon.ComponentHealth{
			Name:    w.Name(),
			Healthy: false,
			Error:   fmt.Errorf("not started"),
		}, nil
	}

	if err := w.pool.Health(ctx); err != nil {
		return &daemon.ComponentHealth{Name: w.Name(), Healthy: false, Error: err}, nil
	}

	return &daemon.ComponentHealth{
		Name:    w.Name(),
		Healthy: true,
		Error:   nil,
	}, nil
}

func (w *WorkersComponent) GetPool() *worker.Pool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pool
}

// CloseSession cancels in-flight runs of a session whose transport went away,
// drops its queued events and resets its thread.
func (w *WorkersComponent) CloseSession(sessionID string) {
	cancelled := 0
	if pool := w.GetPool(); pool != nil {
		cancelled = pool.CloseSession(sessionID)
	}
	reset := false
	if w.sessionsComp != nil {
		if threads := w.sessionsComp.GetStore(); threads != nil {
			reset = threads.Reset(sessionID)
		}
	}
	slog.Debug("Session closed", "session_id", sessionID, "cancelled_runs", cancelled, "thread_reset", reset)
}
