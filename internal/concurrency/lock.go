package concurrency

import "sync"

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// SessionLockManager serializes runs per session. Entries are dropped once no
// goroutine holds or waits on them, so long-lived daemons do not accumulate
// one mutex per session ever seen.
type SessionLockManager struct {
	locks map[string]*sessionLock
	mu    sync.Mutex
}

func NewSessionLockManager() *SessionLockManager {
	return &SessionLockManager{
		locks: make(map[string]*sessionLock),
	}
}

func (m *SessionLockManager) Lock(sessionID string) {
	m.mu.Lock()
	lock, ok := m.locks[sessionID]
	if !ok {
		lock = &sessionLock{}
		m.locks[sessionID] = lock
	}
	lock.refs++
	m.mu.Unlock()
	lock.mu.Lock()
}

func (m *SessionLockManager) Unlock(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[sessionID]
	if !ok {
		return
	}
	lock.refs--
	if lock.refs <= 0 {
		delete(m.locks, sessionID)
	}
	lock.mu.Unlock()
}

// Len reports how many sessions currently hold or wait on a lock.
func (m *SessionLockManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
