package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/store"
)

// Daemon boots the travel agent's components in dependency order, runs until
// SIGINT, SIGTERM or ctx ends, then stops whatever it started in reverse.
// instanceID names the lock file, so two daemons on one port collide.
type Daemon struct {
	cfg          *config.Config
	instanceID   string
	forceCleanup bool

	mu         sync.RWMutex
	components []Component
	// started lists components that completed Init, in boot order. Shutdown
	// and rollback walk it backwards.
	started []Component
	health  HealthStatus
}

// timings are the daemon durations parsed once per Start.
type timings struct {
	shutdown    time.Duration
	healthEvery time.Duration
	staleLock   time.Duration
}

// InstanceID is the default instance name for a server port.
func InstanceID(port int) string {
	return fmt.Sprintf("travelagent-%d", port)
}

func NewDaemon(instanceID string, cfg *config.Config) (*Daemon, error) {
	if instanceID == "" {
		return nil, fmt.Errorf("instance ID cannot be empty")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return &Daemon{instanceID: instanceID, cfg: cfg, health: StatusStarting}, nil
}

func (d *Daemon) AddComponent(comp Component) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.components = append(d.components, comp)
	slog.Debug("Component registered", "component", comp.Name(), "total_components", len(d.components))
}

func (d *Daemon) Start(ctx context.Context) error {
	slog.Info("Travel agent daemon starting", "instance", d.instanceID)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	t, err := d.validateConfig()
	if err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	d.clearStaleLock(t.staleLock)

	if err := d.boot(ctx); err != nil {
		d.rollback(context.Background(), t.shutdown)
		return err
	}

	d.setHealth(StatusRunning)
	slog.Info("Travel agent daemon is running", "instance", d.instanceID, "components", len(d.components))

	go d.watchHealth(ctx, t.healthEvery)
	<-ctx.Done()

	slog.Info("Shutting down", "instance", d.instanceID, "reason", ctx.Err())
	d.setHealth(StatusStopping)
	if err := d.shutdown(context.Background(), t.shutdown); err != nil {
		return err
	}
	return ctx.Err()
}

func (d *Daemon) InstanceID() string {
	return d.instanceID
}

func (d *Daemon) Health() HealthStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.health
}

// SetForceCleanup removes the instance lock at boot even if it is not stale.
func (d *Daemon) SetForceCleanup(force bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.forceCleanup = force
}

// ComponentHealth asks every component for its health. A component that
// returns an error is reported unhealthy with that error.
func (d *Daemon) ComponentHealth() map[string]*ComponentHealth {
	d.mu.RLock()
	components := slices.Clone(d.components)
	d.mu.RUnlock()

	result := make(map[string]*ComponentHealth, len(components))
	for _, comp := range components {
		h, err := comp.Health(context.Background())
		if h == nil {
			h = &ComponentHealth{Name: comp.Name(), Healthy: err == nil}
		}
		if err != nil {
			h.Healthy, h.Error = false, err
		}
		result[comp.Name()] = h
	}
	return result
}

func (d *Daemon) Component(name string) Component {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lookup(name)
}

func (d *Daemon) lookup(name string) Component {
	for _, comp := range d.components {
		if comp.Name() == name {
			return comp
		}
	}
	return nil
}

func (d *Daemon) setHealth(status HealthStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.health = status
}

func (d *Daemon) validateConfig() (timings, error) {
	var t timings
	if p := d.cfg.Server.Port; p < 1 || p > 65535 {
		return t, fmt.Errorf("invalid port: %d (must be 1-65535)", p)
	}
	if d.cfg.Orchestrator.MaxIterations < 0 {
		return t, fmt.Errorf("invalid orchestrator.max_iterations: %d", d.cfg.Orchestrator.MaxIterations)
	}

	var err error
	dc := d.cfg.Daemon
	if t.shutdown, err = config.DurationOrDefault(dc.ShutdownTimeout, config.DefaultDaemonShutdownTimeout); err != nil {
		return t, fmt.Errorf("daemon.shutdown_timeout: %w", err)
	}
	if t.healthEvery, err = config.DurationOrDefault(dc.HealthCheckInterval, config.DefaultDaemonHealthCheckInterval); err != nil {
		return t, fmt.Errorf("daemon.health_check_interval: %w", err)
	}
	if t.staleLock, err = config.DurationOrDefault(dc.StaleLockTTL, config.DefaultDaemonStaleLockTTL); err != nil {
		return t, fmt.Errorf("daemon.stale_lock_ttl: %w", err)
	}

	if dc.LockDir != "" {
		if err := os.MkdirAll(dc.LockDir, 0755); err != nil {
			return t, fmt.Errorf("failed to create lock directory: %w", err)
		}
	}
	return t, nil
}

// clearStaleLock removes a lock left behind by a crashed instance. Failure is
// not fatal; the lock component reports a live holder on its own.
func (d *Daemon) clearStaleLock(ttl time.Duration) {
	dir := d.cfg.Daemon.LockDir
	if dir == "" {
		return
	}
	d.mu.RLock()
	force := d.forceCleanup
	d.mu.RUnlock()

	if err := store.CleanupStaleLocks(store.LockPath(dir, d.instanceID), ttl, force); err != nil {
		slog.Warn("Failed to clean up stale lock", "instance", d.instanceID, "error", err)
	}
}

// boot initializes and then starts components in dependency order. Every
// component whose Init succeeded is recorded so a later failure can stop it.
func (d *Daemon) boot(ctx context.Context) error {
	order, err := d.bootOrder()
	if err != nil {
		return fmt.Errorf("component initialization failed: %w", err)
	}
	slog.Info("Boot order resolved", "order", names(order))

	for _, comp := range order {
		if err := comp.Init(ctx); err != nil {
			return fmt.Errorf("component initialization failed: component %s init failed: %w", comp.Name(), err)
		}
		d.mu.Lock()
		d.started = append(d.started, comp)
		d.mu.Unlock()
		slog.Debug("Component initialized", "component", comp.Name())
	}

	for _, comp := range order {
		if err := comp.Start(ctx); err != nil {
			return fmt.Errorf("component startup failed: component %s startup failed: %w", comp.Name(), err)
		}
		slog.Info("Component started", "component", comp.Name())
	}
	return nil
}

// bootOrder sorts components so each comes after its dependencies. Ties keep
// registration order.
func (d *Daemon) bootOrder() ([]Component, error) {
	d.mu.RLock()
	components := slices.Clone(d.components)
	d.mu.RUnlock()

	pending := make(map[string]int, len(components))
	dependents := make(map[string][]string)
	for _, comp := range components {
		pending[comp.Name()] = 0
	}
	for _, comp := range components {
		for _, dep := range comp.Dependencies() {
			if _, ok := pending[dep]; !ok {
				return nil, fmt.Errorf("component %s depends on %s which is not registered", comp.Name(), dep)
			}
			pending[comp.Name()]++
			dependents[dep] = append(dependents[dep], comp.Name())
		}
	}

	order := make([]Component, 0, len(components))
	placed := make(map[string]bool, len(components))
	for len(order) < len(components) {
		progressed := false
		for _, comp := range components {
			name := comp.Name()
			if placed[name] || pending[name] > 0 {
				continue
			}
			placed[name] = true
			progressed = true
			order = append(order, comp)
			for _, dependent := range dependents[name] {
				pending[dependent]--
			}
		}
		if !progressed {
			var stuck []string
			for _, comp := range components {
				if !placed[comp.Name()] {
					stuck = append(stuck, comp.Name())
				}
			}
			return nil, fmt.Errorf("circular dependency among %s", strings.Join(stuck, ", "))
		}
	}
	return order, nil
}

// shutdown stops started components in reverse boot order within timeout.
func (d *Daemon) shutdown(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.stopStarted(ctx)
	}()

	select {
	case <-done:
		slog.Info("Graceful shutdown completed", "instance", d.instanceID)
		return nil
	case <-ctx.Done():
		d.setHealth(StatusStopped)
		slog.Error("Shutdown timeout exceeded", "instance", d.instanceID, "timeout", timeout)
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}

// rollback undoes a partial boot.
func (d *Daemon) rollback(ctx context.Context, timeout time.Duration) {
	slog.Warn("Boot failed, stopping initialized components", "instance", d.instanceID)
	if err := d.shutdown(ctx, timeout); err != nil {
		slog.Error("Rollback incomplete", "instance", d.instanceID, "error", err)
	}
}

func (d *Daemon) stopStarted(ctx context.Context) {
	d.mu.Lock()
	started := d.started
	d.started = nil
	d.mu.Unlock()

	var errs []error
	for i := len(started) - 1; i >= 0; i-- {
		comp := started[i]
		if err := comp.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", comp.Name(), err))
			continue
		}
		slog.Debug("Component stopped", "component", comp.Name())
	}
	if err := errors.Join(errs...); err != nil {
		slog.Error("Some components failed to stop", "error", err)
	}
	d.setHealth(StatusStopped)
}

// watchHealth polls component health and logs only when the set of
// unhealthy components changes.
func (d *Daemon) watchHealth(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	last := ""
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		unhealthy := d.unhealthy()
		key := strings.Join(unhealthy, ",")
		if key == last {
			continue
		}
		last = key
		if len(unhealthy) == 0 {
			slog.Info("All components healthy again")
		} else {
			slog.Warn("Components unhealthy", "components", unhealthy)
		}
	}
}

func (d *Daemon) unhealthy() []string {
	var out []string
	for name, h := range d.ComponentHealth() {
		if !h.Healthy {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

func names(components []Component) []string {
	out := make([]string, len(components))
	for i, comp := range components {
		out[i] = comp.Name()
	}
	return out
}
