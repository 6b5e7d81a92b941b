// Package whisper implements transcription.Provider against an
// OpenAI-compatible /v1/audio/transcriptions endpoint.
package whisper

import (
	"context"
	"net/http"
	"time"

	apperrors "github.com/kbukum/voicepulse/errors"
	"github.com/kbukum/voicepulse/httpclient"
	"github.com/kbukum/voicepulse/resilience"
	"github.com/kbukum/voicepulse/transcription"
)

const (
	// ProviderName is the provider name used in logs and errors.
	ProviderName = "whisper"

	defaultURL     = "https://api.openai.com"
	defaultModel   = "whisper-1"
	defaultTimeout = 60 * time.Second

	transcriptionsPath = "/v1/audio/transcriptions"
	modelsPath         = "/v1/models"
)

// Config holds configuration for the Whisper provider.
type Config struct {
	URL      string        `json:"url" yaml:"url"`
	APIKey   string        `json:"-" yaml:"-"`
	Model    string        `json:"model" yaml:"model"`
	Language string        `json:"language,omitempty" yaml:"language"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
	// WordTimestamps requests per-word timings in the response.
	WordTimestamps bool `json:"word_timestamps" yaml:"word_timestamps"`
	// Retry configures retry of transient HTTP failures. Nil disables it.
	Retry *resilience.RetryConfig `json:"-" yaml:"-"`
}

// Provider implements transcription.Provider over HTTP.
type Provider struct {
	cfg    Config
	client *httpclient.Client
}

// NewProvider creates a new Whisper transcription provider.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.URL == "" {
		cfg.URL = defaultURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	hc := httpclient.Config{
		Name:    ProviderName,
		BaseURL: cfg.URL,
		Timeout: cfg.Timeout,
		Retry:   cfg.Retry,
	}
	if cfg.APIKey != "" {
		hc.Auth = httpclient.BearerAuth(cfg.APIKey)
	}
	client, err := httpclient.New(hc)
	if err != nil {
		return nil, err
	}
	return &Provider{cfg: cfg, client: client}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks that the endpoint answers the model listing.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: modelsPath})
	return err == nil
}

// Execute is Transcribe under the provider.RequestResponse contract.
func (p *Provider) Execute(ctx context.Context, req transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error) {
	return p.Transcribe(ctx, req)
}

// Transcribe uploads the audio and returns the transcript. Failures are
// returned as TRANSCRIPTION_FAILED AppErrors.
func (p *Provider) Transcribe(ctx context.Context, req transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error) {
	if len(req.Audio) == 0 {
		return nil, apperrors.InvalidInput("audio", "no audio data to transcribe")
	}

	body := &httpclient.MultipartBody{
		Fields: map[string]string{
			"model":           firstNonEmpty(req.Model, p.cfg.Model),
			"response_format": "verbose_json",
		},
		Files: []httpclient.FileField{{
			FieldName:   "file",
			FileName:    firstNonEmpty(req.FileName, "audio.wav"),
			ContentType: req.ContentType,
			Data:        req.Audio,
		}},
	}
	if lang := firstNonEmpty(req.Language, p.cfg.Language); lang != "" {
		body.Fields["language"] = lang
	}
	if req.Prompt != "" {
		body.Fields["prompt"] = req.Prompt
	}
	if p.cfg.WordTimestamps {
		body.Fields["timestamp_granularities[]"] = "word"
	}

	resp, err := httpclient.PostJSON[whisperResponse](p.client, ctx, transcriptionsPath, body)
	if err != nil {
		appErr := apperrors.TranscriptionFailed(ProviderName, err)
		appErr.Retryable = httpclient.IsRetryable(err)
		return nil, appErr
	}
	return resp.Data.toTranscriptionResponse(), nil
}

type whisperResponse struct {
	Text     string               `json:"text"`
	Language string               `json:"language"`
	Duration float64              `json:"duration"`
	Segments []whisperSegment     `json:"segments"`
	Words    []transcription.Word `json:"words"`
}

type whisperSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (r whisperResponse) toTranscriptionResponse() *transcription.TranscriptionResponse {
	segments := make([]transcription.Segment, len(r.Segments))
	for i, seg := range r.Segments {
		segments[i] = transcription.Segment{Start: seg.Start, End: seg.End, Text: seg.Text}
	}

	duration := r.Duration
	if duration == 0 && len(r.Segments) > 0 {
		duration = r.Segments[len(r.Segments)-1].End
	}

	return &transcription.TranscriptionResponse{
		Text:     r.Text,
		Segments: segments,
		Words:    r.Words,
		Duration: duration,
		Language: r.Language,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
