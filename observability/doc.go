// Package observability wires OpenTelemetry tracing and metrics for the
// analysis pipeline.
//
// Both providers export to the same OTLP/HTTP collector:
//
//	cfg := observability.DefaultExportConfig("voicepulse")
//	tp, err := observability.InitTracer(ctx, cfg)
//	mp, err := observability.InitMeter(ctx, cfg)
//
// Pipeline code opens spans with StartSpan and records on Metrics:
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanProcessChunk)
//	defer span.End()
//	metrics.RecordChunk(ctx, sessionID, elapsed)
package observability
