package store

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shortLockConfig(timeout time.Duration) *FileLockConfig {
	retry := 10 * time.Millisecond
	maxRetry := int(timeout / retry)
	if maxRetry < 1 {
		maxRetry = 1
	}
	return &FileLockConfig{
		LockTimeout:  timeout,
		LockRetry:    retry,
		LockMaxRetry: maxRetry,
	}
}

func testLockPath(t *testing.T) string {
	t.Helper()
	return LockPath(t.TempDir(), "travelagent-8000")
}

func TestLockPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/var/run/travelagent", "travelagent-8000.lock"),
		LockPath("/var/run/travelagent", "travelagent-8000"))
}

func TestFileLockConfigFrom(t *testing.T) {
	cfg, err := FileLockConfigFrom(config.DaemonConfig{LockTimeout: "1s", LockRetry: "100ms"})
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.LockTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.LockRetry)
	assert.Equal(t, 10, cfg.LockMaxRetry)

	defaults := DefaultFileLockConfig()
	assert.Equal(t, 5*time.Second, defaults.LockTimeout)
	assert.Equal(t, 50, defaults.LockMaxRetry)

	_, err = FileLockConfigFrom(config.DaemonConfig{LockTimeout: "soon"})
	assert.Error(t, err)
	_, err = FileLockConfigFrom(config.DaemonConfig{LockRetry: "0s"})
	assert.Error(t, err)
}

func TestNewFileLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "nested", "travelagent-8000.lock")

	lock, err := NewFileLock("travelagent-8000", lockPath, nil)
	require.NoError(t, err)
	assert.True(t, lock.IsLocked())
	assert.Equal(t, lockPath, lock.Path())

	_, err = os.Stat(lockPath)
	assert.NoError(t, err)

	lock.Unlock()
	assert.False(t, lock.IsLocked())

	// second unlock is a no-op
	lock.Unlock()
	assert.False(t, lock.IsLocked())
}

func TestFileLockSecondInstanceFails(t *testing.T) {
	lockPath := testLockPath(t)
	cfg := shortLockConfig(120 * time.Millisecond)

	lock1, err := NewFileLock("travelagent-8000", lockPath, cfg)
	require.NoError(t, err)
	defer lock1.Unlock()

	start := time.Now()
	lock2, err := NewFileLock("travelagent-8000", lockPath, cfg)
	if err == nil {
		lock2.Unlock()
	}
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestFileLockDifferentInstances(t *testing.T) {
	dir := t.TempDir()

	lock1, err := NewFileLock("travelagent-8000", LockPath(dir, "travelagent-8000"), nil)
	require.NoError(t, err)
	defer lock1.Unlock()

	lock2, err := NewFileLock("travelagent-8001", LockPath(dir, "travelagent-8001"), nil)
	require.NoError(t, err)
	lock2.Unlock()
}

func TestFileLockHeldDuration(t *testing.T) {
	lock, err := NewFileLock("travelagent-8000", testLockPath(t), nil)
	require.NoError(t, err)
	defer lock.Unlock()

	time.Sleep(50 * time.Millisecond)
	assert.GreaterOrEqual(t, lock.HeldDuration(), 50*time.Millisecond)
}

func TestFileLockExcludesRawFlock(t *testing.T) {
	lockPath := testLockPath(t)

	lock, err := NewFileLock("travelagent-8000", lockPath, nil)
	require.NoError(t, err)
	defer lock.Unlock()

	raw := flock.New(lockPath)
	locked, err := raw.TryLock()
	require.NoError(t, err)
	if locked {
		_ = raw.Unlock()
	}
	assert.False(t, locked)
}

func TestFileLockConcurrentAccess(t *testing.T) {
	lockPath := testLockPath(t)
	cfg := shortLockConfig(500 * time.Millisecond)

	var (
		wg            sync.WaitGroup
		mu            sync.Mutex
		acquired      int
		inCritical    int
		maxConcurrent int
	)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			lock, err := NewFileLock("travelagent-8000", lockPath, cfg)
			if err != nil {
				return
			}
			defer lock.Unlock()

			mu.Lock()
			acquired++
			inCritical++
			if inCritical > maxConcurrent {
				maxConcurrent = inCritical
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Positive(t, acquired)
	assert.LessOrEqual(t, maxConcurrent, 1)
}

func TestCleanupStaleLocks(t *testing.T) {
	lockPath := testLockPath(t)
	require.NoError(t, os.WriteFile(lockPath, []byte("stale"), 0o644))

	staleTime := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(lockPath, staleTime, staleTime))

	require.NoError(t, CleanupStaleLocks(lockPath, 5*time.Minute, false))
	_, err := os.Stat(lockPath)
	require.NoError(t, err, "stale lock should remain without force")

	require.NoError(t, CleanupStaleLocks(lockPath, 5*time.Minute, true))
	_, err = os.Stat(lockPath)
	assert.True(t, os.IsNotExist(err))

	lock, err := NewFileLock("travelagent-8000", lockPath, shortLockConfig(200*time.Millisecond))
	require.NoError(t, err)
	lock.Unlock()

	assert.NoError(t, CleanupStaleLocks(filepath.Join(t.TempDir(), "missing.lock"), time.Minute, true))
}

func TestCleanupStaleLocks_FreshLockKept(t *testing.T) {
	lockPath := testLockPath(t)
	require.NoError(t, os.WriteFile(lockPath, nil, 0o644))

	require.NoError(t, CleanupStaleLocks(lockPath, time.Hour, true))
	_, err := os.Stat(lockPath)
	assert.NoError(t, err)
}
