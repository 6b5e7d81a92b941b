// Package transcription defines the speech-to-text collaborator used to
// attach transcripts to analyzed audio.
//
// Backends:
//
//   - transcription/whisper: OpenAI-compatible /v1/audio/transcriptions
//
// Provider implementations also satisfy
// provider.RequestResponse[TranscriptionRequest, *TranscriptionResponse];
// FromRequestResponse turns a middleware-wrapped provider back into a
// Provider.
package transcription
