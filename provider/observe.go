package provider

import (
	"context"
	"time"

	"github.com/kbukum/voicepulse/logger"
	"github.com/kbukum/voicepulse/observability"
)

// WithLogging logs every call with its latency: failures at warn level,
// successes at debug.
func WithLogging[I, O any](log *logger.Logger) Middleware[I, O] {
	return func(rr RequestResponse[I, O]) RequestResponse[I, O] {
		name := rr.Name()
		return &decorated[I, O]{RequestResponse: rr, around: func(ctx context.Context, call func(context.Context) (O, error)) (O, error) {
			start := time.Now()
			out, err := call(ctx)

			fields := logger.DurationFields("execute", time.Since(start))
			fields[logger.FieldProvider] = name
			l := log.WithContext(ctx)
			if err != nil {
				l.Warn("provider execute failed", fields, logger.ErrorFields("execute", err))
			} else {
				l.Debug("provider execute ok", fields)
			}
			return out, err
		}}
	}
}

// WithMetrics records the call outcome and latency on the shared
// operation instruments.
func WithMetrics[I, O any](m *observability.Metrics) Middleware[I, O] {
	return func(rr RequestResponse[I, O]) RequestResponse[I, O] {
		name := rr.Name()
		return &decorated[I, O]{RequestResponse: rr, around: func(ctx context.Context, call func(context.Context) (O, error)) (O, error) {
			start := time.Now()
			out, err := call(ctx)
			status := "ok"
			if err != nil {
				status = "error"
				m.RecordError(ctx, "execute", name)
			}
			m.RecordOperation(ctx, name, "execute", status, time.Since(start))
			return out, err
		}}
	}
}

// WithTracing opens a span named "<service>.<provider>" around every call.
func WithTracing[I, O any](service string) Middleware[I, O] {
	return func(rr RequestResponse[I, O]) RequestResponse[I, O] {
		name := rr.Name()
		return &decorated[I, O]{RequestResponse: rr, around: func(ctx context.Context, call func(context.Context) (O, error)) (O, error) {
			ctx, span := observability.StartSpan(ctx, service+"."+name)
			defer span.End()
			observability.SetSpanAttribute(ctx, observability.AttrServiceName, service)
			observability.SetSpanAttribute(ctx, observability.AttrOperationName, name)

			out, err := call(ctx)
			if err != nil {
				observability.SetSpanError(ctx, err)
			}
			return out, err
		}}
	}
}
