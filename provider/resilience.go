package provider

import (
	"context"
	"errors"

	apperrors "github.com/kbukum/voicepulse/errors"
	"github.com/kbukum/voicepulse/resilience"
)

// ResilienceConfig selects the policies applied by WithResilience. Nil
// policies are skipped.
type ResilienceConfig struct {
	CircuitBreaker *resilience.CircuitBreakerConfig
	Retry          *resilience.RetryConfig
	Bulkhead       *resilience.BulkheadConfig
}

// IsEmpty reports whether no policy is configured.
func (c ResilienceConfig) IsEmpty() bool {
	return c.CircuitBreaker == nil && c.Retry == nil && c.Bulkhead == nil
}

// WithResilience guards rr with the configured policies. A call passes the
// bulkhead first, then the circuit breaker, and is retried inside the
// breaker, so one breaker failure covers a whole retry sequence. Policy
// rejections surface as SERVICE_UNAVAILABLE or TIMEOUT app errors.
func WithResilience[I, O any](rr RequestResponse[I, O], cfg ResilienceConfig) RequestResponse[I, O] {
	if cfg.IsEmpty() {
		return rr
	}
	g := &guarded[I, O]{RequestResponse: rr, retry: cfg.Retry}
	if cfg.CircuitBreaker != nil {
		g.breaker = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	if cfg.Bulkhead != nil {
		g.bulkhead = resilience.NewBulkhead(*cfg.Bulkhead)
	}
	return g
}

type guarded[I, O any] struct {
	RequestResponse[I, O]
	breaker  *resilience.CircuitBreaker
	bulkhead *resilience.Bulkhead
	retry    *resilience.RetryConfig
}

// IsAvailable is false while the circuit is open.
func (g *guarded[I, O]) IsAvailable(ctx context.Context) bool {
	if g.breaker != nil && g.breaker.State() == resilience.StateOpen {
		return false
	}
	return g.RequestResponse.IsAvailable(ctx)
}

func (g *guarded[I, O]) Execute(ctx context.Context, input I) (O, error) {
	attempt := func() (O, error) { return g.RequestResponse.Execute(ctx, input) }

	call := attempt
	if g.retry != nil {
		rc := *g.retry
		call = func() (O, error) { return resilience.Retry(ctx, rc, attempt) }
	}
	if g.breaker != nil {
		inner := call
		call = func() (O, error) {
			var out O
			var callErr error
			err := g.breaker.Execute(func() error {
				out, callErr = inner()
				return callErr
			})
			if callErr != nil {
				return out, callErr
			}
			return out, err
		}
	}

	var (
		out O
		err error
	)
	if g.bulkhead != nil {
		out, err = resilience.ExecuteWithResult(ctx, g.bulkhead, call)
	} else {
		out, err = call()
	}
	return out, toAppError(err)
}

// toAppError maps policy rejections and context errors to app errors and
// leaves everything else alone.
func toAppError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return apperrors.New(apperrors.ErrCodeServiceUnavailable, "Collaborator circuit is open").WithCause(err)
	case errors.Is(err, resilience.ErrBulkheadFull), errors.Is(err, resilience.ErrBulkheadTimeout):
		return apperrors.New(apperrors.ErrCodeServiceUnavailable, "Collaborator concurrency limit reached").WithCause(err)
	case errors.Is(err, context.Canceled):
		return apperrors.Timeout("request canceled").WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("deadline exceeded").WithCause(err)
	}
	return err
}
