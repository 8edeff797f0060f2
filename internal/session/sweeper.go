package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"

	"github.com/robfig/cron/v3"
)

// Sweeper evicts idle threads on a cron schedule such as "@every 5m".
type Sweeper struct {
	store    *Store
	schedule string

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

func NewSweeper(store *Store, schedule string) *Sweeper {
	if schedule == "" {
		schedule = config.DefaultSessionSweepSchedule
	}
	return &Sweeper{store: store, schedule: schedule}
}

func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() {
		s.store.Sweep(s.store.now())
	}); err != nil {
		return fmt.Errorf("parse sweep schedule %q: %w", s.schedule, err)
	}
	c.Start()

	s.cron = c
	s.running = true
	slog.Info("Session sweeper started", "schedule", s.schedule)
	return nil
}

func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	running := s.running
	s.running = false
	s.mu.Unlock()

	if !running {
		return nil
	}

	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	slog.Info("Session sweeper stopped")
	return nil
}

func (s *Sweeper) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
