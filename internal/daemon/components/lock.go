package components

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/daemon"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/store"
)

// InstanceLockComponent holds the per-port lock for the lifetime of the
// server. An empty lock dir disables it.
type InstanceLockComponent struct {
	instanceID string
	cfg        *config.DaemonConfig
	lock       *store.FileLock
	mu         sync.RWMutex
}

func NewInstanceLockComponent(instanceID string, cfg *config.DaemonConfig) *InstanceLockComponent {
	return &InstanceLockComponent{instanceID: instanceID, cfg: cfg}
}

func (l *InstanceLockComponent) Name() string {
	return "InstanceLock"
}

func (l *InstanceLockComponent) Dependencies() []string {
	return []string{}
}

func (l *InstanceLockComponent) Init(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("InstanceLock init cancelled: %w", ctx.Err())
	default:
	}

	if l.cfg == nil || l.cfg.LockDir == "" {
		slog.Info("Instance lock disabled", "component", l.Name())
		return nil
	}

	lockCfg, err := store.FileLockConfigFrom(*l.cfg)
	if err != nil {
		return err
	}
	lock, err := store.NewFileLock(l.instanceID, store.LockPath(l.cfg.LockDir, l.instanceID), lockCfg)
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}

	l.lock = lock
	slog.Info("InstanceLock initialized", "component", l.Name(), "instance", l.instanceID)
	return nil
}

func (l *InstanceLockComponent) Start(ctx context.Context) error {
	return nil
}

func (l *InstanceLockComponent) Stop(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lock == nil {
		return nil
	}
	l.lock.Unlock()
	l.lock = nil
	return nil
}

func (l *InstanceLockComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.cfg != nil && l.cfg.LockDir != "" && (l.lock == nil || !l.lock.IsLocked()) {
		return &daemon.ComponentHealth{
			Name:    l.Name(),
			Healthy: false,
			Error:   fmt.Errorf("lock not held"),
		}, nil
	}
	return &daemon.ComponentHealth{Name: l.Name(), Healthy: true}, nil
}
