package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"

	"github.com/gofrs/flock"
)

// FileLock keeps a second server from binding the same instance (port).
type FileLock struct {
	fileLock   *flock.Flock
	lockPath   string
	instanceID string
	acquiredAt time.Time
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
}

type FileLockConfig struct {
	LockTimeout  time.Duration
	LockRetry    time.Duration
	LockMaxRetry int
}

func DefaultFileLockConfig() *FileLockConfig {
	cfg, _ := FileLockConfigFrom(config.DaemonConfig{})
	return cfg
}

// FileLockConfigFrom derives retry settings from the daemon section. The
// retry count covers the whole timeout window.
func FileLockConfigFrom(cfg config.DaemonConfig) (*FileLockConfig, error) {
	lockTimeout, err := config.DurationOrDefault(cfg.LockTimeout, config.DefaultDaemonLockTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse daemon lock timeout: %w", err)
	}
	lockRetry, err := config.DurationOrDefault(cfg.LockRetry, config.DefaultDaemonLockRetry)
	if err != nil {
		return nil, fmt.Errorf("parse daemon lock retry: %w", err)
	}
	if lockRetry <= 0 {
		return nil, fmt.Errorf("daemon lock retry must be positive")
	}

	maxRetry := int(lockTimeout / lockRetry)
	if maxRetry < 1 {
		maxRetry = 1
	}
	return &FileLockConfig{
		LockTimeout:  lockTimeout,
		LockRetry:    lockRetry,
		LockMaxRetry: maxRetry,
	}, nil
}

// LockPath is the lock file for one instance inside dir.
func LockPath(dir, instanceID string) string {
	return filepath.Join(dir, instanceID+".lock")
}

func NewFileLock(instanceID, lockPath string, cfg *FileLockConfig) (*FileLock, error) {
	if cfg == nil {
		cfg = DefaultFileLockConfig()
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.LockTimeout)

	fl := &FileLock{
		fileLock:   flock.New(lockPath),
		lockPath:   lockPath,
		instanceID: instanceID,
		ctx:        ctx,
		cancel:     cancel,
	}

	if err := fl.acquireWithRetry(cfg); err != nil {
		cancel()
		return nil, err
	}

	fl.acquiredAt = time.Now()
	slog.Info("Instance lock acquired",
		"instance", instanceID,
		"path", lockPath,
		"acquired_at", fl.acquiredAt.Format(time.RFC3339Nano),
	)

	return fl, nil
}

func (fl *FileLock) acquireWithRetry(cfg *FileLockConfig) error {
	for i := 0; i < cfg.LockMaxRetry; i++ {
		select {
		case <-fl.ctx.Done():
			return fmt.Errorf("lock acquisition cancelled: %w", fl.ctx.Err())
		default:
			locked, err := fl.fileLock.TryLock()
			if err != nil {
				return fmt.Errorf("failed to attempt lock: %w", err)
			}
			if locked {
				return nil
			}

			if i < cfg.LockMaxRetry-1 {
				time.Sleep(cfg.LockRetry)
			}
		}
	}

	return fmt.Errorf("instance %s is already running (lock %s held after %v)",
		fl.instanceID, fl.lockPath, cfg.LockTimeout)
}

func (fl *FileLock) Unlock() {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.fileLock == nil {
		slog.Warn("Instance lock already released", "instance", fl.instanceID)
		return
	}

	held := time.Since(fl.acquiredAt)
	if err := fl.fileLock.Unlock(); err != nil {
		slog.Error("Failed to release instance lock",
			"instance", fl.instanceID,
			"path", fl.lockPath,
			"error", err,
		)
	} else {
		slog.Info("Instance lock released",
			"instance", fl.instanceID,
			"held_duration_ms", held.Milliseconds(),
		)
	}

	if fl.cancel != nil {
		fl.cancel()
	}

	fl.fileLock = nil
}

func (fl *FileLock) IsLocked() bool {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	return fl.fileLock != nil
}

func (fl *FileLock) Path() string {
	return fl.lockPath
}

func (fl *FileLock) HeldDuration() time.Duration {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	if fl.acquiredAt.IsZero() {
		return 0
	}
	return time.Since(fl.acquiredAt)
}

// CleanupStaleLocks reports a lock file older than maxAge and removes it
// when forceCleanup is set.
func CleanupStaleLocks(lockPath string, maxAge time.Duration, forceCleanup bool) error {
	info, err := os.Stat(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	age := time.Since(info.ModTime())
	if age <= maxAge {
		return nil
	}

	slog.Warn("Found stale lock file",
		"path", lockPath,
		"age", age,
		"max_age", maxAge,
	)

	if !forceCleanup {
		slog.Info("Stale lock detected but not cleaning (use --force-clean-locks to remove)",
			"path", lockPath,
		)
		return nil
	}

	if err := os.Remove(lockPath); err != nil {
		slog.Error("Failed to remove stale lock file", "path", lockPath, "error", err)
		return err
	}

	slog.Info("Stale lock file removed", "path", lockPath)
	return nil
}
