// Package observe wires OpenTelemetry metrics and traces for the agent. Metrics
// are exported through a Prometheus bridge and scraped from /metrics.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit"

// Status attribute values shared by the counters.
const (
	StatusOK          = "ok"
	StatusError       = "error"
	StatusNotFound    = "not_found"
	StatusCancelled   = "cancelled"
	StatusLimitHit    = "iteration_limit"
	StatusUnavailable = "unavailable"
)

// Metrics holds the instruments. All fields are safe for concurrent use.
type Metrics struct {
	DecisionDuration    metric.Float64Histogram
	ToolDuration        metric.Float64Histogram
	HTTPRequestDuration metric.Float64Histogram

	// ToolCalls is labelled with tool and status.
	ToolCalls metric.Int64Counter
	// Runs is labelled with status.
	Runs metric.Int64Counter
	// ProviderRequests is labelled with provider and status.
	ProviderRequests metric.Int64Counter

	ActiveSessions metric.Int64UpDownCounter
}

// Seconds. Search APIs and model calls sit between a few hundred ms and tens of seconds.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40,
}

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.DecisionDuration, err = m.Float64Histogram("travelagent.decision.duration",
		metric.WithDescription("Latency of one decision step (model call)."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ToolDuration, err = m.Float64Histogram("travelagent.tool.duration",
		metric.WithDescription("Latency of a single tool invocation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("travelagent.http.request.duration",
		metric.WithDescription("HTTP request latency by method and route."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if met.ToolCalls, err = m.Int64Counter("travelagent.tool.calls",
		metric.WithDescription("Tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.Runs, err = m.Int64Counter("travelagent.runs",
		metric.WithDescription("Orchestration runs by terminal status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderRequests, err = m.Int64Counter("travelagent.provider.requests",
		metric.WithDescription("Model provider requests by provider and status."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("travelagent.active_sessions",
		metric.WithDescription("Number of live conversation threads."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the process-wide instance built on the global meter
// provider. Call InitProvider first so the instruments bind to the exporter.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

func (m *Metrics) RecordDecision(ctx context.Context, model, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.DecisionDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(
			attribute.String("model", model),
			attribute.String("status", status),
		),
	)
}

func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("status", status),
	)
	m.ToolCalls.Add(ctx, 1, attrs)
	m.ToolDuration.Record(ctx, d.Seconds(), attrs)
}

func (m *Metrics) RecordRun(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.Runs.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, status string) {
	if m == nil {
		return
	}
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
}

func (m *Metrics) SessionOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(ctx, 1)
}

func (m *Metrics) SessionClosed(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(ctx, -1)
}
