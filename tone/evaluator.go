package tone

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/kbukum/voicepulse/errors"
	"github.com/kbukum/voicepulse/llm"
	"github.com/kbukum/voicepulse/logger"
	"github.com/kbukum/voicepulse/provider"
)

// SystemPrompt frames the collaborator as a lecture-delivery analyst.
const SystemPrompt = "You are an AI teaching assistant that analyzes lecture delivery. Always respond with valid JSON only, no additional text."

const userPromptTemplate = `Analyze the sentiment and delivery tone of this lecture transcript segment.

Transcript: %s

Return ONLY a valid JSON object with these exact keys:
{
    "sentiment_score": float between -1.0 and 1.0 (negative to positive),
    "sentiment_label": "positive" or "negative" or "neutral",
    "confidence": float between 0.0 and 1.0,
    "tone_description": "Brief description of the delivery tone (e.g., 'Enthusiastic and engaging', 'Monotone and disengaged', 'Clear and confident')",
    "engagement_indicators": ["List of", "engagement-related", "observations"]
}

Do not include any text outside the JSON object.`

// Config holds the completion parameters for LLM-backed evaluation.
type Config struct {
	Model       string        `yaml:"model" mapstructure:"model"`
	// Temperature is left to the provider when nil. Zero is a valid
	// setting.
	Temperature *float64      `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// DefaultConfig returns the completion parameters used by the lecture
// assistant.
func DefaultConfig() Config {
	return Config{
		Model:       "gpt-4",
		Temperature: llm.Float64(0.3),
		MaxTokens:   200,
		Timeout:     30 * time.Second,
	}
}

// LLMEvaluator evaluates transcript windows through a chat-completion
// provider.
type LLMEvaluator struct {
	judge provider.RequestResponse[string, Judgment]
	cfg   Config
	log   *logger.Logger
}

// Option configures an LLMEvaluator.
type Option func(*LLMEvaluator)

// WithLogger sets the logger used for failed evaluations.
func WithLogger(l *logger.Logger) Option {
	return func(e *LLMEvaluator) { e.log = l.WithComponent("tone") }
}

// NewLLMEvaluator creates an evaluator over a completion provider. The
// provider may already be wrapped with logging, metrics, tracing or
// resilience middleware.
func NewLLMEvaluator(p provider.RequestResponse[llm.CompletionRequest, llm.CompletionResponse], cfg Config, opts ...Option) *LLMEvaluator {
	defaults := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if cfg.Temperature == nil {
		cfg.Temperature = defaults.Temperature
	}

	e := &LLMEvaluator{cfg: cfg, log: logger.WithComponent("tone")}
	e.judge = provider.Adapt(p, "tone-"+p.Name(), e.buildRequest, parseJudgment)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the evaluator name.
func (e *LLMEvaluator) Name() string { return e.judge.Name() }

// IsAvailable reports whether the underlying provider is reachable.
func (e *LLMEvaluator) IsAvailable(ctx context.Context) bool {
	return e.judge.IsAvailable(ctx)
}

// Evaluate returns the judgment for text, or a neutral judgment annotated
// with the error when evaluation fails.
func (e *LLMEvaluator) Evaluate(ctx context.Context, text string) Judgment {
	if emptyWindow(text) {
		return Neutral("No content to analyze")
	}
	j, err := e.Judge(ctx, text)
	if err != nil {
		e.log.WithContext(ctx).Warn("tone evaluation failed", logger.ErrorFields("evaluate", err))
		cause := err
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Cause != nil {
			cause = appErr.Cause
		}
		return Failed(cause)
	}
	return j
}

// Judge evaluates text and returns collaborator failures as
// CHECKPOINT_FAILED errors.
func (e *LLMEvaluator) Judge(ctx context.Context, text string) (Judgment, error) {
	if emptyWindow(text) {
		return Neutral("No content to analyze"), nil
	}
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}
	j, err := e.judge.Execute(ctx, text)
	if err != nil {
		return Judgment{}, apperrors.CheckpointFailed(err)
	}
	return j, nil
}

func (e *LLMEvaluator) buildRequest(_ context.Context, text string) (llm.CompletionRequest, error) {
	return llm.CompletionRequest{
		Model:        e.cfg.Model,
		SystemPrompt: SystemPrompt,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: fmt.Sprintf(userPromptTemplate, text)}},
		Temperature:  llm.Float64(*e.cfg.Temperature),
		MaxTokens:    e.cfg.MaxTokens,
	}, nil
}

func parseJudgment(resp llm.CompletionResponse) (Judgment, error) {
	var j Judgment
	if err := llm.DecodeJSON(resp.Content, &j); err != nil {
		return Judgment{}, fmt.Errorf("parse tone judgment: %w", err)
	}
	j.Error = ""
	return j.Normalize(), nil
}
