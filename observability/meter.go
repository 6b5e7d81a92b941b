package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded by the pipeline and its
// collaborator providers.
type Metrics struct {
	operationTotal       metric.Int64Counter
	operationDuration    metric.Float64Histogram
	errorTotal           metric.Int64Counter
	chunksProcessed      metric.Int64Counter
	chunkDuration        metric.Float64Histogram
	checkpointTotal      metric.Int64Counter
	checkpointDuration   metric.Float64Histogram
	checkpointsDiscarded metric.Int64Counter
	sessionsActive       metric.Int64UpDownCounter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.operationTotal, err = meter.Int64Counter("operation.total",
		metric.WithDescription("Total number of collaborator calls"),
	); err != nil {
		return nil, fmt.Errorf("creating operation.total counter: %w", err)
	}
	if m.operationDuration, err = meter.Float64Histogram("operation.duration",
		metric.WithDescription("Duration of collaborator calls in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating operation.duration histogram: %w", err)
	}
	if m.errorTotal, err = meter.Int64Counter("error.total",
		metric.WithDescription("Total errors by type and component"),
	); err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}
	if m.chunksProcessed, err = meter.Int64Counter("voicepulse.chunks.processed",
		metric.WithDescription("Audio chunks analyzed by the fast path"),
	); err != nil {
		return nil, fmt.Errorf("creating voicepulse.chunks.processed counter: %w", err)
	}
	if m.chunkDuration, err = meter.Float64Histogram("voicepulse.chunk.duration",
		metric.WithDescription("Fast-path latency per chunk in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating voicepulse.chunk.duration histogram: %w", err)
	}
	if m.checkpointTotal, err = meter.Int64Counter("voicepulse.checkpoints",
		metric.WithDescription("Tone checkpoints evaluated"),
	); err != nil {
		return nil, fmt.Errorf("creating voicepulse.checkpoints counter: %w", err)
	}
	if m.checkpointDuration, err = meter.Float64Histogram("voicepulse.checkpoint.duration",
		metric.WithDescription("Tone checkpoint latency in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating voicepulse.checkpoint.duration histogram: %w", err)
	}
	if m.checkpointsDiscarded, err = meter.Int64Counter("voicepulse.checkpoints.discarded",
		metric.WithDescription("Checkpoints dropped because the session was reset"),
	); err != nil {
		return nil, fmt.Errorf("creating voicepulse.checkpoints.discarded counter: %w", err)
	}
	if m.sessionsActive, err = meter.Int64UpDownCounter("voicepulse.sessions.active",
		metric.WithDescription("Sessions currently registered"),
	); err != nil {
		return nil, fmt.Errorf("creating voicepulse.sessions.active counter: %w", err)
	}

	return m, nil
}

// RecordOperation records a collaborator call.
func (m *Metrics) RecordOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	m.operationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
	m.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("operation", operation),
	))
}

// RecordError records an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}

// RecordChunk records one fast-path chunk analysis.
func (m *Metrics) RecordChunk(ctx context.Context, sessionID string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String(AttrSessionID, sessionID))
	m.chunksProcessed.Add(ctx, 1, attrs)
	m.chunkDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordCheckpoint records a tone checkpoint. status is "ok" or "fallback".
func (m *Metrics) RecordCheckpoint(ctx context.Context, sessionID, status string, duration time.Duration) {
	m.checkpointTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrSessionID, sessionID),
		attribute.String("status", status),
	))
	m.checkpointDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrSessionID, sessionID),
	))
}

// RecordDiscardedCheckpoint counts a checkpoint dropped by a stale generation.
func (m *Metrics) RecordDiscardedCheckpoint(ctx context.Context, sessionID string) {
	m.checkpointsDiscarded.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrSessionID, sessionID)))
}

// SessionOpened increments the active session gauge.
func (m *Metrics) SessionOpened(ctx context.Context) {
	m.sessionsActive.Add(ctx, 1)
}

// SessionClosed decrements the active session gauge.
func (m *Metrics) SessionClosed(ctx context.Context) {
	m.sessionsActive.Add(ctx, -1)
}
