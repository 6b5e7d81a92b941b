package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/kbukum/voicepulse/errors"
	"github.com/kbukum/voicepulse/httpclient"
)

// ErrNoDialect is returned by NewWithDialect for a nil dialect.
var ErrNoDialect = errors.New("llm: dialect is required")

// Adapter sends completion requests over HTTP in the wire format of its
// Dialect. It is a provider.RequestResponse[CompletionRequest, CompletionResponse].
type Adapter struct {
	client   *httpclient.Client
	dialect  Dialect
	defaults CompletionRequest
}

// New builds an adapter for the registered dialect named by cfg.Dialect.
func New(cfg Config) (*Adapter, error) {
	d, err := GetDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	return NewWithDialect(d, cfg)
}

// NewWithDialect builds an adapter around an unregistered dialect.
func NewWithDialect(d Dialect, cfg Config) (*Adapter, error) {
	if d == nil {
		return nil, ErrNoDialect
	}
	cfg.applyDefaults(d.Name())

	client, err := httpclient.New(httpclient.Config{
		Name:           cfg.Name,
		BaseURL:        cfg.BaseURL,
		Timeout:        cfg.Timeout,
		Auth:           cfg.Auth,
		Headers:        map[string]string{"Accept": "application/json"},
		Retry:          cfg.Retry,
		CircuitBreaker: cfg.CircuitBreaker,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create http client: %w", err)
	}
	return &Adapter{
		client:  client,
		dialect: d,
		defaults: CompletionRequest{
			Model:       cfg.Model,
			Temperature: Float64(cfg.Temperature),
			MaxTokens:   cfg.MaxTokens,
		},
	}, nil
}

func (a *Adapter) Name() string { return a.client.Name() }

// IsAvailable is false while the client's breaker is open or the dialect's
// health endpoint fails.
func (a *Adapter) IsAvailable(ctx context.Context) bool {
	if !a.client.IsAvailable(ctx) {
		return false
	}
	path := a.dialect.HealthPath()
	if path == "" {
		return true
	}
	_, err := a.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: path})
	return err == nil
}

// Execute posts req to the chat endpoint. Transport failures come back as
// EXTERNAL_SERVICE_ERROR app errors, retryable when the HTTP failure is.
func (a *Adapter) Execute(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	if req.Model == "" {
		req.Model = a.defaults.Model
	}
	if req.Temperature == nil {
		req.Temperature = a.defaults.Temperature
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = a.defaults.MaxTokens
	}

	body, err := a.dialect.BuildRequest(req)
	if err != nil {
		return CompletionResponse{}, apperrors.InvalidInput("completion_request", err.Error())
	}
	resp, err := httpclient.PostJSON[json.RawMessage](a.client, ctx, a.dialect.ChatPath(), body)
	if err != nil {
		appErr := apperrors.ExternalServiceError(a.dialect.Name(), err)
		appErr.Retryable = httpclient.IsRetryable(err)
		return CompletionResponse{}, appErr
	}

	out, err := a.dialect.ParseResponse(resp.Data)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("llm: parse %s response: %w", a.dialect.Name(), err)
	}
	return *out, nil
}

// Dialect returns the adapter's dialect.
func (a *Adapter) Dialect() Dialect { return a.dialect }
