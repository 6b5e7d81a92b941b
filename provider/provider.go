package provider

import "context"

// Provider is implemented by every external collaborator.
type Provider interface {
	Name() string
	// IsAvailable reports whether calls are currently worth attempting.
	IsAvailable(ctx context.Context) bool
}

// RequestResponse is a collaborator that maps one request to one response,
// such as a chat completion or a transcription upload.
type RequestResponse[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (O, error)
}

// Middleware decorates a RequestResponse with cross-cutting behavior.
type Middleware[I, O any] func(RequestResponse[I, O]) RequestResponse[I, O]

// Chain composes middlewares so that the first one is outermost:
// Chain(a, b)(p) == a(b(p)).
func Chain[I, O any](mws ...Middleware[I, O]) Middleware[I, O] {
	return func(rr RequestResponse[I, O]) RequestResponse[I, O] {
		for i := len(mws) - 1; i >= 0; i-- {
			rr = mws[i](rr)
		}
		return rr
	}
}

// Func turns fn into an always-available RequestResponse. Tests and
// in-process collaborators use it.
func Func[I, O any](name string, fn func(ctx context.Context, input I) (O, error)) RequestResponse[I, O] {
	return funcRR[I, O]{name: name, fn: fn}
}

type funcRR[I, O any] struct {
	name string
	fn   func(context.Context, I) (O, error)
}

func (f funcRR[I, O]) Name() string                     { return f.name }
func (f funcRR[I, O]) IsAvailable(context.Context) bool { return true }

func (f funcRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return f.fn(ctx, input)
}

// decorated forwards identity and availability to the wrapped provider and
// runs every call through around.
type decorated[I, O any] struct {
	RequestResponse[I, O]
	around func(ctx context.Context, call func(context.Context) (O, error)) (O, error)
}

func (d *decorated[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return d.around(ctx, func(ctx context.Context) (O, error) {
		return d.RequestResponse.Execute(ctx, input)
	})
}
