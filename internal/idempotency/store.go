// Package idempotency remembers platform delivery ids so redelivered
// webhooks are handled once.
package idempotency

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/natefinch/atomic"
)

// pruneEvery bounds how many marks may pass between expiry sweeps.
const pruneEvery = 256

type seenKeys struct {
	Keys map[string]int64 `json:"keys"` // key -> expiry (unix seconds)
}

// Store is a TTL set of delivery keys. With an empty path it lives only in
// memory; otherwise Save persists it atomically and NewStore reloads it.
type Store struct {
	path  string
	state seenKeys
	marks int
	now   func() time.Time
	mu    sync.Mutex
}

func NewStore(path string) (*Store, error) {
	s := &Store{
		path:  path,
		state: seenKeys{Keys: make(map[string]int64)},
		now:   time.Now,
	}
	if path == "" {
		return s, nil
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("load delivery keys from %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		return err
	}
	if s.state.Keys == nil {
		s.state.Keys = make(map[string]int64)
	}
	return nil
}

// Save writes unexpired keys to disk. It is a no-op for memory-only stores.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return nil
	}
	s.pruneLocked()

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	return atomic.WriteFile(s.path, bytes.NewReader(data))
}

// CheckAndMark reports whether key was already seen within its TTL and
// marks it as seen for ttl from now.
func (s *Store) CheckAndMark(key string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().Unix()
	if expiry, exists := s.state.Keys[key]; exists && expiry > now {
		return true
	}

	s.state.Keys[key] = now + int64(ttl.Seconds())
	s.marks++
	if s.marks%pruneEvery == 0 {
		s.pruneLocked()
	}
	return false
}

// Prune drops expired keys and returns how many were removed.
func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneLocked()
}

func (s *Store) pruneLocked() int {
	now := s.now().Unix()
	count := 0
	for k, expiry := range s.state.Keys {
		if expiry <= now {
			delete(s.state.Keys, k)
			count++
		}
	}
	return count
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Keys)
}
