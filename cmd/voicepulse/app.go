package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/voicepulse/component"
	"github.com/kbukum/voicepulse/config"
	"github.com/kbukum/voicepulse/httpclient"
	"github.com/kbukum/voicepulse/llm"
	_ "github.com/kbukum/voicepulse/llm/ollama"
	_ "github.com/kbukum/voicepulse/llm/openai"
	"github.com/kbukum/voicepulse/logger"
	"github.com/kbukum/voicepulse/observability"
	"github.com/kbukum/voicepulse/provider"
	"github.com/kbukum/voicepulse/resilience"
	"github.com/kbukum/voicepulse/session"
	"github.com/kbukum/voicepulse/store"
	"github.com/kbukum/voicepulse/tone"
	"github.com/kbukum/voicepulse/transcription"
	"github.com/kbukum/voicepulse/transcription/whisper"
	"github.com/kbukum/voicepulse/version"
)

// app wires configuration into the analysis components.
type app struct {
	cfg        *config.Config
	log        *logger.Logger
	metrics    *observability.Metrics
	components *component.Registry
	// archive is nil unless the lecture archive is enabled.
	archive *store.Component
}

func newApp(opts *rootOptions) (*app, error) {
	var loadOpts []config.LoaderOption
	if opts.configFile != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(opts.configFile))
	}
	if opts.envFile != "" {
		loadOpts = append(loadOpts, config.WithEnvFile(opts.envFile))
	}
	cfg, err := config.Load(serviceName, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger.Init(cfg.Logging)
	log := logger.WithComponent("cli")
	log.Debug("starting", version.GetVersionInfo().LogFields())

	// Instruments bind to the meter provider installed later by telemetry.
	metrics, err := observability.NewMetrics(observability.Meter(serviceName))
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}
	a := &app{
		cfg:        cfg,
		log:        log,
		metrics:    metrics,
		components: component.NewRegistry(),
	}
	if cfg.Observability.Enabled {
		if err := a.components.Register(&telemetry{cfg: cfg}); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *app) start(ctx context.Context) error {
	return a.components.StartAll(ctx)
}

func (a *app) stop(ctx context.Context) {
	if err := a.components.StopAll(ctx); err != nil {
		a.log.Warn("shutdown incomplete", logger.ErrorFields("stop", err))
	}
}

// enableArchive registers the lecture archive so that it opens with the
// other components.
func (a *app) enableArchive() error {
	a.archive = store.NewComponent(a.storeConfig(), a.log)
	return a.components.Register(a.archive)
}

// archiveFeedback stores checkpoints as they complete. Failures are logged;
// the analysis carries on without them.
func (a *app) archiveFeedback(ctx context.Context, sessionID string) session.Option {
	ctx = context.WithoutCancel(ctx)
	return session.WithCheckpointCallback(func(cp session.Checkpoint) {
		if err := a.archive.Store().AppendFeedback(ctx, sessionID, cp); err != nil {
			a.log.Warn("feedback not archived", logger.Fields(
				logger.FieldSessionID, sessionID,
				logger.FieldError, err.Error(),
			))
		}
	})
}

func (a *app) storeConfig() store.Config {
	c := a.cfg.Store
	return store.Config{
		Path:               c.Path,
		BusyTimeout:        c.BusyTimeout,
		SlowQueryThreshold: c.SlowQueryThreshold,
		LogLevel:           c.LogLevel,
	}
}

func (a *app) pipelineConfig() session.PipelineConfig {
	return session.PipelineConfig{
		SentimentInterval:     a.cfg.Pipeline.SentimentInterval,
		TranscriptBufferChars: a.cfg.Pipeline.TranscriptBufferChars,
		CheckpointWindow:      a.cfg.Pipeline.CheckpointWindow,
	}
}

func (a *app) retryConfig(maxRetries int) *resilience.RetryConfig {
	rc := httpclient.DefaultRetryConfig()
	rc.MaxAttempts = maxRetries + 1
	rc.OnRetry = func(attempt int, err error, backoff time.Duration) {
		fields := logger.ErrorFields("retry", err)
		fields["attempt"] = attempt
		fields["backoff_ms"] = backoff.Milliseconds()
		a.log.Debug("retrying collaborator call", fields)
	}
	return rc
}

// evaluator returns the LLM tone evaluator, or nil when it is disabled so
// that pipelines fall back to neutral checkpoints.
func (a *app) evaluator() (tone.Evaluator, error) {
	c := a.cfg.LLM
	if !c.Enabled {
		return nil, nil
	}
	var auth *httpclient.AuthConfig
	if c.APIKey != "" {
		auth = httpclient.BearerAuth(c.APIKey)
	}
	adapter, err := llm.New(llm.Config{
		Name:        "tone-" + c.Dialect,
		Dialect:     c.Dialect,
		BaseURL:     c.BaseURL,
		Model:       c.Model,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		Timeout:     c.Timeout,
		Auth:        auth,
		Retry:       a.retryConfig(c.MaxRetries),
	})
	if err != nil {
		return nil, fmt.Errorf("build llm adapter: %w", err)
	}

	var rr provider.RequestResponse[llm.CompletionRequest, llm.CompletionResponse] = adapter
	rr = provider.WithResilience(rr, provider.ResilienceConfig{
		CircuitBreaker: a.circuitBreaker(rr.Name()),
	})
	rr = provider.Chain(
		provider.WithTracing[llm.CompletionRequest, llm.CompletionResponse](serviceName),
		provider.WithMetrics[llm.CompletionRequest, llm.CompletionResponse](a.metrics),
		provider.WithLogging[llm.CompletionRequest, llm.CompletionResponse](a.log),
	)(rr)

	return tone.NewLLMEvaluator(rr, tone.Config{
		Model:       c.Model,
		Temperature: llm.Float64(c.Temperature),
		MaxTokens:   c.MaxTokens,
		Timeout:     c.Timeout,
	}, tone.WithLogger(a.log)), nil
}

// transcriber returns the Whisper provider, or nil when transcription is
// disabled.
func (a *app) transcriber() (transcription.Provider, error) {
	c := a.cfg.Transcription
	if !c.Enabled {
		return nil, nil
	}
	w, err := whisper.NewProvider(whisper.Config{
		URL:            c.URL,
		APIKey:         c.APIKey,
		Model:          c.Model,
		Language:       c.Language,
		Timeout:        c.Timeout,
		WordTimestamps: c.WordTimings,
		Retry:          a.retryConfig(c.MaxRetries),
	})
	if err != nil {
		return nil, fmt.Errorf("build transcription provider: %w", err)
	}

	type req = transcription.TranscriptionRequest
	type resp = *transcription.TranscriptionResponse
	var rr provider.RequestResponse[req, resp] = w
	rr = provider.WithResilience(rr, provider.ResilienceConfig{
		CircuitBreaker: a.circuitBreaker(rr.Name()),
	})
	rr = provider.Chain(
		provider.WithTracing[req, resp](serviceName),
		provider.WithMetrics[req, resp](a.metrics),
		provider.WithLogging[req, resp](a.log),
	)(rr)
	return transcription.FromRequestResponse(rr), nil
}

func (a *app) circuitBreaker(name string) *resilience.CircuitBreakerConfig {
	cb := resilience.DefaultCircuitBreakerConfig(name)
	cb.OnStateChange = func(name string, from, to resilience.State) {
		a.log.Warn("collaborator circuit changed", logger.Fields(
			logger.FieldProvider, name,
			"from", from.String(),
			"to", to.String(),
		))
	}
	return &cb
}

// telemetry installs the OTLP tracer and meter providers for the lifetime
// of the command.
type telemetry struct {
	cfg    *config.Config
	tracer *sdktrace.TracerProvider
	meter  *sdkmetric.MeterProvider
}

func (t *telemetry) Name() string { return "telemetry" }

func (t *telemetry) Start(ctx context.Context) error {
	o := t.cfg.Observability
	ec := observability.DefaultExportConfig(t.cfg.Name)
	ec.ServiceVersion = version.GetShortVersion()
	ec.Environment = t.cfg.Environment
	ec.Endpoint = o.Endpoint
	ec.Insecure = o.Insecure
	ec.SampleRate = o.SampleRate
	tp, err := observability.InitTracer(ctx, ec)
	if err != nil {
		return err
	}
	t.tracer = tp

	mp, err := observability.InitMeter(ctx, ec)
	if err != nil {
		// Flush whatever the tracer already buffered.
		_ = tp.Shutdown(context.WithoutCancel(ctx))
		t.tracer = nil
		return err
	}
	t.meter = mp
	return nil
}

func (t *telemetry) Stop(ctx context.Context) error {
	var errs []error
	if t.meter != nil {
		errs = append(errs, t.meter.Shutdown(ctx))
	}
	if t.tracer != nil {
		errs = append(errs, t.tracer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func (t *telemetry) Health(context.Context) component.Health {
	status := component.StatusHealthy
	if t.tracer == nil || t.meter == nil {
		status = component.StatusDegraded
	}
	return component.Health{Name: t.Name(), Status: status, Message: t.cfg.Observability.Endpoint}
}
