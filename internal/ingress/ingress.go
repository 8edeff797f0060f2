package ingress

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/errors"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/idempotency"
)

// MetaDeliveryID carries the platform's own id for a delivery. Webhook
// platforms redeliver on slow acks; a repeated id is dropped.
const MetaDeliveryID = "delivery_id"

// Ingress is the bounded queue between channel adapters and the worker pool.
type Ingress struct {
	queue         chan *Event
	router        Router
	resolver      Resolver
	submitTimeout time.Duration
	dedup         *idempotency.Store
	dedupTTL      time.Duration

	mu     sync.RWMutex
	closed bool
}

func NewIngress(cfg config.IngressConfig) (*Ingress, error) {
	size := cfg.QueueSize
	if size <= 0 {
		size = config.DefaultIngressQueueSize
	}
	submitTimeout, err := config.DurationOrDefault(cfg.SubmitTimeout, config.DefaultIngressSubmitTimeout)
	if err != nil {
		return nil, err
	}

	dedupTTL, err := config.DurationOrDefault(cfg.DedupTTL, config.DefaultIngressDedupTTL)
	if err != nil {
		return nil, err
	}
	dedup, err := idempotency.NewStore(cfg.DedupPath)
	if err != nil {
		return nil, err
	}

	return &Ingress{
		queue:         make(chan *Event, size),
		router:        NewStandardRouter(),
		resolver:      NewStandardResolver(),
		submitTimeout: submitTimeout,
		dedup:         dedup,
		dedupTTL:      dedupTTL,
	}, nil
}

// Submit routes and enqueues an event. A queue that stays full for the
// submit timeout returns ErrTransient.
func (i *Ingress) Submit(ctx context.Context, evt *Event) error {
	if evt == nil {
		return errors.InvalidInput("event is nil")
	}

	slog.Debug("Ingress received event", "id", evt.ID, "type", evt.Type, "source", evt.Source)

	if delivery := evt.Metadata[MetaDeliveryID]; delivery != "" {
		if i.dedup.CheckAndMark(evt.Source+":"+delivery, i.dedupTTL) {
			slog.Info("Duplicate delivery dropped", "source", evt.Source, "delivery_id", delivery)
			return nil
		}
	}

	if i.router.Route(ctx, evt) == DestDrop {
		slog.Info("Event dropped by router", "id", evt.ID)
		return nil
	}

	sess, err := i.resolver.ResolveSession(ctx, evt)
	if err != nil {
		return errors.Wrap(err, "session resolution failed")
	}
	evt.SessionID = sess

	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return errors.Unavailable("ingress is closed")
	}

	timer := time.NewTimer(i.submitTimeout)
	defer timer.Stop()

	select {
	case i.queue <- evt:
		slog.Debug("Event queued", "id", evt.ID, "session", evt.SessionID)
		return nil
	case <-timer.C:
		slog.Warn("Queue full, dropping event", "id", evt.ID)
		return errors.ErrTransient
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (i *Ingress) Queue() <-chan *Event {
	return i.queue
}

// Close stops accepting events and closes the queue. Events already queued
// are still delivered to consumers ranging over Queue.
func (i *Ingress) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil
	}
	i.closed = true
	close(i.queue)
	slog.Info("Ingress closed", "pending", len(i.queue))

	if err := i.dedup.Save(); err != nil {
		return errors.Wrap(err, "persist delivery ids")
	}
	return nil
}

func (i *Ingress) Health(ctx context.Context) error {
	usage := float64(len(i.queue)) / float64(cap(i.queue))
	slog.Debug("Ingress health metrics", "queue_len", len(i.queue), "queue_cap", cap(i.queue), "usage", usage)
	if usage > 0.9 {
		return errors.Transient("queue nearly full")
	}
	return nil
}
