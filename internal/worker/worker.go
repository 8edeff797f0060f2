package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/concurrency"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/errors"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/ingress"
)

const closedRetention = 10 * time.Minute

// Executor runs one event to completion. orchestrator.Kernel satisfies it.
type Executor interface {
	Execute(ctx context.Context, evt *ingress.Event) error
}

// Pool consumes the ingress queue with a fixed number of goroutines so a
// slow run never blocks the adapters or other sessions. Runs for one session
// are serialized by the session lock.
type Pool struct {
	mu      sync.RWMutex
	started bool
	quit    chan struct{}
	wg      sync.WaitGroup

	size   int
	events <-chan *ingress.Event
	exec   Executor
	locks  *concurrency.SessionLockManager

	runsMu sync.Mutex
	runs   map[string]map[uint64]context.CancelFunc
	nextID uint64
	// closed holds sessions whose transport went away, with the close time.
	closed map[string]time.Time

	runTimeout      time.Duration
	shutdownTimeout time.Duration
}

func NewPool(cfg config.WorkerConfig, events <-chan *ingress.Event, exec Executor, locks *concurrency.SessionLockManager) (*Pool, error) {
	size := cfg.PoolSize
	if size <= 0 {
		size = config.DefaultWorkerPoolSize
	}
	runTimeout, err := config.DurationOrDefault(cfg.RunTimeout, config.DefaultWorkerRunTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse worker run timeout: %w", err)
	}
	shutdownTimeout, err := config.DurationOrDefault(cfg.ShutdownTimeout, config.DefaultWorkerShutdownTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse worker shutdown timeout: %w", err)
	}
	if locks == nil {
		locks = concurrency.NewSessionLockManager()
	}

	return &Pool{
		size:            size,
		events:          events,
		exec:            exec,
		locks:           locks,
		runs:            make(map[string]map[uint64]context.CancelFunc),
		closed:          make(map[string]time.Time),
		runTimeout:      runTimeout,
		shutdownTimeout: shutdownTimeout,
	}, nil
}

func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("worker pool already started: %w", errors.ErrConflict)
	}
	p.started = true
	p.quit = make(chan struct{})

	for i := 0; i < p.size; i++ {
		id := i
		p.wg.Add(1)
		concurrency.SafeGo(func() {
			defer p.wg.Done()
			p.eventLoop(ctx, id)
		}, func(r interface{}) {
			slog.Error("Worker loop panicked", "worker", id, "panic", r)
		})
	}

	slog.Info("Worker pool started", "size", p.size)
	return nil
}

func (p *Pool) eventLoop(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			slog.Debug("Worker stopping (context cancelled)", "worker", id)
			return
		case <-p.quit:
			slog.Debug("Worker stopping (quit signal)", "worker", id)
			return
		case evt, ok := <-p.events:
			if !ok {
				slog.Debug("Worker stopping (channel closed)", "worker", id)
				return
			}
			p.process(ctx, evt)
		}
	}
}

func (p *Pool) process(ctx context.Context, evt *ingress.Event) {
	if err := validateEvent(evt); err != nil {
		slog.Error("Dropping invalid event", "error", err)
		return
	}

	if p.isClosed(evt.SessionID) {
		slog.Info("Dropping event for closed session", "id", evt.ID, "session_id", evt.SessionID)
		return
	}

	start := time.Now()
	slog.Info("Processing event", "id", evt.ID, "session_id", evt.SessionID, "type", evt.Type)

	runCtx, release := p.trackRun(ctx, evt.SessionID)
	defer release()

	p.locks.Lock(evt.SessionID)
	defer p.locks.Unlock(evt.SessionID)

	if runCtx.Err() != nil {
		slog.Info("Event cancelled before start", "id", evt.ID, "session_id", evt.SessionID)
		return
	}

	var err error
	func() {
		defer concurrency.Recover(func(r interface{}) {
			err = errors.Internal(fmt.Sprintf("panic: %v", r))
		})
		err = p.exec.Execute(runCtx, evt)
	}()
	if err != nil {
		slog.Error("Event processing failed", "id", evt.ID, "session_id", evt.SessionID, "error", err)
		return
	}

	slog.Debug("Event processed", "id", evt.ID, "duration", time.Since(start))
}

// trackRun derives the run context and registers its cancel func under the
// session so CancelSession can reach runs that are still waiting for the lock.
func (p *Pool) trackRun(ctx context.Context, sessionID string) (context.Context, func()) {
	runCtx, cancel := context.WithTimeout(ctx, p.runTimeout)

	p.runsMu.Lock()
	p.nextID++
	id := p.nextID
	if p.runs[sessionID] == nil {
		p.runs[sessionID] = make(map[uint64]context.CancelFunc)
	}
	p.runs[sessionID][id] = cancel
	p.runsMu.Unlock()

	return runCtx, func() {
		p.runsMu.Lock()
		delete(p.runs[sessionID], id)
		if len(p.runs[sessionID]) == 0 {
			delete(p.runs, sessionID)
		}
		p.runsMu.Unlock()
		cancel()
	}
}

// CancelSession cancels every queued-and-started or running event of the
// session and returns how many were cancelled.
func (p *Pool) CancelSession(sessionID string) int {
	p.runsMu.Lock()
	defer p.runsMu.Unlock()

	runs := p.runs[sessionID]
	for _, cancel := range runs {
		cancel()
	}
	if len(runs) > 0 {
		slog.Info("Session runs cancelled", "session_id", sessionID, "count", len(runs))
	}
	return len(runs)
}

// CloseSession cancels the session's runs like CancelSession and drops any of
// its events still in the queue. Session ids are not reused, so the mark is
// kept for closedRetention.
func (p *Pool) CloseSession(sessionID string) int {
	p.runsMu.Lock()
	now := time.Now()
	for id, at := range p.closed {
		if now.Sub(at) > closedRetention {
			delete(p.closed, id)
		}
	}
	p.closed[sessionID] = now
	p.runsMu.Unlock()

	return p.CancelSession(sessionID)
}

func (p *Pool) isClosed(sessionID string) bool {
	p.runsMu.Lock()
	defer p.runsMu.Unlock()
	_, ok := p.closed[sessionID]
	return ok
}

// InFlight returns the number of runs currently tracked.
func (p *Pool) InFlight() int {
	p.runsMu.Lock()
	defer p.runsMu.Unlock()
	n := 0
	for _, runs := range p.runs {
		n += len(runs)
	}
	return n
}

func validateEvent(evt *ingress.Event) error {
	if evt == nil {
		return errors.InvalidInput("event is nil")
	}
	if evt.ID == "" {
		return errors.InvalidInput("event ID is empty")
	}
	if evt.SessionID == "" {
		return errors.InvalidInput("session ID is empty")
	}
	if evt.Type == "" {
		return errors.InvalidInput("event type is empty")
	}
	return nil
}

func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		slog.Info("Worker pool not started, skipping stop")
		return nil
	}

	slog.Info("Stopping worker pool...")
	close(p.quit)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(p.shutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
		slog.Info("Worker pool stopped gracefully")
		p.started = false
		return nil
	case <-timer.C:
		slog.Warn("Worker pool shutdown timeout, force stopping")
		p.started = false
		return errors.Internal("shutdown timeout")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) Health(ctx context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.started {
		return errors.Internal("worker pool not started")
	}
	if p.events == nil {
		return errors.Internal("event channel not initialized")
	}
	if p.exec == nil {
		return errors.Internal("executor not configured")
	}
	return nil
}
