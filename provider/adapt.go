package provider

import "context"

// Adapt presents a backend collaborator speaking wire types BI/BO as a
// domain provider of I/O. toWire builds the backend request and fromWire
// interprets its response; their errors are returned as is. Availability
// follows the backend.
func Adapt[I, O, BI, BO any](
	backend RequestResponse[BI, BO],
	name string,
	toWire func(ctx context.Context, input I) (BI, error),
	fromWire func(output BO) (O, error),
) RequestResponse[I, O] {
	return &adapted[I, O, BI, BO]{backend: backend, name: name, toWire: toWire, fromWire: fromWire}
}

type adapted[I, O, BI, BO any] struct {
	backend  RequestResponse[BI, BO]
	name     string
	toWire   func(context.Context, I) (BI, error)
	fromWire func(BO) (O, error)
}

func (a *adapted[I, O, BI, BO]) Name() string { return a.name }

func (a *adapted[I, O, BI, BO]) IsAvailable(ctx context.Context) bool {
	return a.backend.IsAvailable(ctx)
}

func (a *adapted[I, O, BI, BO]) Execute(ctx context.Context, input I) (O, error) {
	var zero O
	req, err := a.toWire(ctx, input)
	if err != nil {
		return zero, err
	}
	resp, err := a.backend.Execute(ctx, req)
	if err != nil {
		return zero, err
	}
	return a.fromWire(resp)
}
