// Package resilience protects calls to the transcription and tone
// collaborators.
//
//   - Retry: retries failed calls with exponential backoff and jitter
//   - CircuitBreaker: fails fast while a collaborator keeps failing
//   - Bulkhead: bounds the number of in-flight calls
//
// The primitives compose; provider.WithResilience chains them around any
// RequestResponse provider.
package resilience
