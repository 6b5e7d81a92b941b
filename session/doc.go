// Package session owns the per-lecture analysis state.
//
// A Pipeline accepts chunks in order and returns their fast metrics
// synchronously. On a slower cadence it evaluates the tone of the recent
// transcript window in the background. A Registry maps session ids to
// pipelines. A Batcher groups chunk audio for transcription and
// back-fills the transcript-derived metrics of already processed chunks.
//
// Callers must serialize ProcessChunk for one pipeline. Independent
// pipelines share nothing and may run in parallel.
package session
