// Package provider models the external collaborators of the analysis
// pipeline, the tone LLM and the speech-to-text backend, as generic
// request/response providers.
//
// Middleware decorates a provider; Chain composes decorators with the
// first one outermost:
//
//	rr = provider.Chain(
//	    provider.WithTracing[Req, Resp]("voicepulse"),
//	    provider.WithMetrics[Req, Resp](metrics),
//	    provider.WithLogging[Req, Resp](log),
//	)(rr)
//
// WithResilience applies the policies of a ResilienceConfig. Adapt
// bridges a backend's wire types to domain types.
package provider
