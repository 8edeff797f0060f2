package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/model/contract"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/observe"
)

// Thread is the in-memory conversation of one channel session.
type Thread struct {
	ID        string
	Messages  []contract.Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store keeps one thread per session in process memory. Nothing is written
// to disk.
type Store struct {
	mu          sync.RWMutex
	threads     map[string]*Thread
	idleTTL     time.Duration
	maxMessages int
	metrics     *observe.Metrics
	now         func() time.Time
}

func NewStore(cfg config.SessionConfig, metrics *observe.Metrics) (*Store, error) {
	idleTTL, err := config.DurationOrDefault(cfg.IdleTTL, config.DefaultSessionIdleTTL)
	if err != nil {
		return nil, err
	}
	maxMessages := cfg.MaxMessages
	if maxMessages < 0 {
		maxMessages = 0
	}

	return &Store{
		threads:     make(map[string]*Thread),
		idleTTL:     idleTTL,
		maxMessages: maxMessages,
		metrics:     metrics,
		now:         time.Now,
	}, nil
}

// Load returns a copy of the thread's messages. Unknown ids yield an empty
// history.
func (s *Store) Load(threadID string) []contract.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.threads[threadID]
	if !ok {
		return nil
	}
	out := make([]contract.Message, len(t.Messages))
	copy(out, t.Messages)
	return out
}

// Save checkpoints the full message list for threadID.
func (s *Store) Save(threadID string, messages []contract.Message) {
	trimmed := trimTurns(messages, s.maxMessages)
	stored := make([]contract.Message, len(trimmed))
	copy(stored, trimmed)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	t, ok := s.threads[threadID]
	if !ok {
		t = &Thread{ID: threadID, CreatedAt: now}
		s.threads[threadID] = t
		s.metrics.SessionOpened(context.Background())
	}
	t.Messages = stored
	t.UpdatedAt = now
}

// Reset drops a thread. It reports whether the thread existed.
func (s *Store) Reset(threadID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.threads[threadID]; !ok {
		return false
	}
	delete(s.threads, threadID)
	s.metrics.SessionClosed(context.Background())
	return true
}

// Sweep evicts threads idle for longer than the TTL and returns how many
// were removed.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, t := range s.threads {
		if now.Sub(t.UpdatedAt) > s.idleTTL {
			delete(s.threads, id)
			s.metrics.SessionClosed(context.Background())
			evicted++
		}
	}
	if evicted > 0 {
		slog.Info("Evicted idle threads", "count", evicted, "remaining", len(s.threads))
	}
	return evicted
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.threads)
}

// trimTurns drops the oldest messages so at most max remain. Cuts happen only
// at user messages, so an assistant tool-call message always keeps its
// results. When no such cut exists the history is kept whole.
func trimTurns(messages []contract.Message, max int) []contract.Message {
	if max <= 0 || len(messages) <= max {
		return messages
	}
	for i := len(messages) - max; i < len(messages); i++ {
		if messages[i].Role == contract.RoleUser {
			return messages[i:]
		}
	}
	return messages
}
