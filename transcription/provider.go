package transcription

import (
	"context"

	"github.com/kbukum/voicepulse/provider"
)

// Provider is the interface that transcription backends must implement.
type Provider interface {
	provider.Provider

	// Transcribe sends audio for transcription and returns the result.
	Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error)
}

// FromRequestResponse exposes a request/response provider, typically one
// wrapped with provider middleware, as a transcription Provider.
func FromRequestResponse(rr provider.RequestResponse[TranscriptionRequest, *TranscriptionResponse]) Provider {
	return &rrProvider{rr}
}

type rrProvider struct {
	provider.RequestResponse[TranscriptionRequest, *TranscriptionResponse]
}

func (p *rrProvider) Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error) {
	return p.Execute(ctx, req)
}
