package egress

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/adapter"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/errors"
)

type Egress interface {
	// Register registers an output adapter
	Register(adapter adapter.OutputAdapter) error

	// Unregister removes an output adapter
	Unregister(name string) error

	// Send delivers content through the adapter named by source.
	Send(ctx context.Context, source, sessionID, content string) error

	// Health checks egress health and all registered adapters
	Health(ctx context.Context) error

	// ListAdapters returns all registered adapters
	ListAdapters() []adapter.OutputAdapter
}

type DefaultEgress struct {
	mu       sync.RWMutex
	adapters map[string]adapter.OutputAdapter
}

func NewEgress() *DefaultEgress {
	return &DefaultEgress{
		adapters: make(map[string]adapter.OutputAdapter),
	}
}

func (e *DefaultEgress) Register(adapter adapter.OutputAdapter) error {
	if adapter == nil {
		return errors.InvalidInput("adapter cannot be nil")
	}

	name := adapter.Name()
	if name == "" {
		return errors.InvalidInput("adapter name cannot be empty")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.adapters[name]; exists {
		return errors.ErrConflict
	}

	e.adapters[name] = adapter
	slog.Info("Egress adapter registered", "name", name)
	return nil
}

func (e *DefaultEgress) Unregister(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.adapters[name]; !exists {
		return errors.NotFound("adapter not found: " + name)
	}

	delete(e.adapters, name)
	slog.Info("Egress adapter unregistered", "name", name)
	return nil
}

func (e *DefaultEgress) Send(ctx context.Context, source, sessionID, content string) error {
	if source == "" {
		slog.Warn("Event has no source, cannot route response", "session", sessionID)
		return errors.InvalidInput("response source missing")
	}

	out, err := e.getAdapter(source)
	if err != nil {
		return err
	}

	if err := out.Send(ctx, sessionID, content); err != nil {
		return errors.Wrap(err, "failed to send response")
	}

	slog.Debug("Response sent", "session", sessionID, "source", source, "content_length", len(content))
	return nil
}

func (e *DefaultEgress) getAdapter(name string) (adapter.OutputAdapter, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out, ok := e.adapters[name]
	if !ok {
		return nil, errors.NotFound("no adapter found for source: " + name)
	}
	return out, nil
}

func (e *DefaultEgress) Health(ctx context.Context) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.adapters) == 0 {
		return errors.Internal("no adapters registered")
	}

	var unhealthy []string
	for name, out := range e.adapters {
		if err := out.Health(ctx); err != nil {
			unhealthy = append(unhealthy, name)
			slog.Warn("Adapter unhealthy", "name", name, "error", err)
		}
	}

	if len(unhealthy) > 0 {
		sort.Strings(unhealthy)
		return errors.Transient(fmt.Sprintf("%d adapter(s) unhealthy: %v", len(unhealthy), unhealthy))
	}

	return nil
}

func (e *DefaultEgress) ListAdapters() []adapter.OutputAdapter {
	e.mu.RLock()
	defer e.mu.RUnlock()

	adapters := make([]adapter.OutputAdapter, 0, len(e.adapters))
	for _, out := range e.adapters {
		adapters = append(adapters, out)
	}
	sort.Slice(adapters, func(i, j int) bool { return adapters[i].Name() < adapters[j].Name() })
	return adapters
}
