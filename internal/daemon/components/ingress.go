package components

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/daemon"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/ingress"
)

type IngressComponent struct {
	ingress     *ingress.Ingress
	cfg         *config.IngressConfig
	initialized bool
	started     bool
	mu          sync.RWMutex
	startTime   time.Time
}

func NewIngressComponent(cfg *config.IngressConfig) *IngressComponent {
	return &IngressComponent{cfg: cfg}
}

func (i *IngressComponent) Name() string {
	return "Ingress"
}

func (i *IngressComponent) Dependencies() []string {
	return []string{}
}

func (i *IngressComponent) Init(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.cfg == nil {
		return fmt.Errorf("ingress config not provided")
	}

	ing, err := ingress.NewIngress(*i.cfg)
	if err != nil {
		return fmt.Errorf("create ingress: %w", err)
	}
	i.ingress = ing
	i.initialized = true
	slog.Info("Ingress initialized", "component", i.Name())
	return nil
}

func (i *IngressComponent) Start(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.initialized {
		return fmt.Errorf("Ingress not initialized")
	}

	i.started = true
	i.startTime = time.Now()
	slog.Info("Ingress started", "component", i.Name())
	return nil
}

func (i *IngressComponent) Stop(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.started {
		slog.Info("Ingress not started, skipping stop", "component", i.Name())
		return nil
	}

	slog.Info("Stopping Ingress...", "component", i.Name())
	if i.ingress != nil {
		if err := i.ingress.Close(); err != nil {
			return err
		}
	}
	i.started = false
	slog.Info("Ingress stopped", "component", i.Name())
	return nil
}

func (i *IngressComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if !i.started {
		return &daemon.ComponentHealth{
			Name:    i.Name(),
			Healthy: false,
			Error:   fmt.Errorf("not started"),
		}, nil
	}
	if err := i.ingress.Health(ctx); err != nil {
		return &daemon.ComponentHealth{Name: i.Name(), Healthy: false, Error: err}, nil
	}

	return &daemon.ComponentHealth{
		Name:    i.Name(),
		Healthy: true,
		Error:   nil,
	}, nil
}

func (i *IngressComponent) GetIngress() *ingress.Ingress {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.ingress
}

// Submit hands an adapter event to the queue. It has the adapter.EventHandler
// shape so it can be passed straight to the runtime manager.
func (i *IngressComponent) Submit(ctx context.Context, source, eventType, sessionID, content string, metadata map[string]string) error {
	ing := i.GetIngress()
	if ing == nil {
		return fmt.Errorf("ingress not initialized")
	}

	msgType := ingress.TypeUserMessage
	if eventType == string(ingress.TypeCommand) {
		msgType = ingress.TypeCommand
	}

	evt := ingress.NewEvent(source, msgType, sessionID, content, metadata)
	return ing.Submit(ctx, &evt)
}
