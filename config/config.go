package config

import (
	"fmt"
	"time"

	"github.com/kbukum/voicepulse/validation"
)

// Config is the complete voicepulse configuration.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Pipeline      PipelineSection      `yaml:"pipeline" mapstructure:"pipeline"`
	LLM           LLMSection           `yaml:"llm" mapstructure:"llm"`
	Transcription TranscriptionSection `yaml:"transcription" mapstructure:"transcription"`
	Observability ObservabilitySection `yaml:"observability" mapstructure:"observability"`
	Store         StoreSection         `yaml:"store" mapstructure:"store"`
}

// PipelineSection configures the dual-cadence orchestrator.
type PipelineSection struct {
	SentimentInterval     time.Duration `yaml:"sentiment_interval" mapstructure:"sentiment_interval" json:"sentiment_interval" validate:"gt=0"`
	TranscriptBufferChars int           `yaml:"transcript_buffer_chars" mapstructure:"transcript_buffer_chars" json:"transcript_buffer_chars" validate:"gt=0"`
	CheckpointWindow      time.Duration `yaml:"checkpoint_window" mapstructure:"checkpoint_window" json:"checkpoint_window" validate:"gt=0"`
	SampleRate            int           `yaml:"sample_rate" mapstructure:"sample_rate" json:"sample_rate" validate:"gte=8000,lte=192000"`
	ChunkDuration         time.Duration `yaml:"chunk_duration" mapstructure:"chunk_duration" json:"chunk_duration" validate:"gt=0"`
	BatchDuration         time.Duration `yaml:"batch_duration" mapstructure:"batch_duration" json:"batch_duration" validate:"gt=0"`
}

// LLMSection configures the text-to-tone collaborator.
type LLMSection struct {
	Enabled     bool          `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	Dialect     string        `yaml:"dialect" mapstructure:"dialect" json:"dialect" validate:"required_if=Enabled true"`
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url" json:"base_url" validate:"omitempty,url"`
	APIKey      string        `yaml:"api_key" mapstructure:"api_key" json:"api_key"`
	Model       string        `yaml:"model" mapstructure:"model" json:"model"`
	Temperature float64       `yaml:"temperature" mapstructure:"temperature" json:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens" json:"max_tokens" validate:"gte=0"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout" json:"timeout"`
	MaxRetries  int           `yaml:"max_retries" mapstructure:"max_retries" json:"max_retries" validate:"gte=0,lte=10"`
}

// TranscriptionSection configures the audio-to-text collaborator.
type TranscriptionSection struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	URL      string        `yaml:"url" mapstructure:"url" json:"url" validate:"omitempty,url"`
	APIKey   string        `yaml:"api_key" mapstructure:"api_key" json:"api_key"`
	Model    string        `yaml:"model" mapstructure:"model" json:"model"`
	Language string        `yaml:"language" mapstructure:"language" json:"language"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout" json:"timeout"`
	// WordTimings requests word timestamps so speaking rate excludes pauses.
	WordTimings bool `yaml:"word_timings" mapstructure:"word_timings" json:"word_timings"`
	MaxRetries  int  `yaml:"max_retries" mapstructure:"max_retries" json:"max_retries" validate:"gte=0,lte=10"`
	// MaxInFlight bounds concurrent batch uploads per session.
	MaxInFlight int `yaml:"max_in_flight" mapstructure:"max_in_flight" json:"max_in_flight" validate:"gte=0,lte=16"`
}

// ObservabilitySection configures OpenTelemetry export.
type ObservabilitySection struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint" json:"endpoint" validate:"required_if=Enabled true"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure" json:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" json:"sample_rate" validate:"gte=0,lte=1"`
}

// StoreSection configures the local SQLite lecture archive.
type StoreSection struct {
	Enabled            bool          `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	Path               string        `yaml:"path" mapstructure:"path" json:"path" validate:"required_if=Enabled true"`
	BusyTimeout        time.Duration `yaml:"busy_timeout" mapstructure:"busy_timeout" json:"busy_timeout" validate:"gte=0"`
	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold" mapstructure:"slow_query_threshold" json:"slow_query_threshold" validate:"gte=0"`
	LogLevel           string        `yaml:"log_level" mapstructure:"log_level" json:"log_level" validate:"omitempty,oneof=silent error warn info"`
}

// DefaultValues returns the registered defaults keyed by dotted path.
func DefaultValues() map[string]any {
	return map[string]any{
		"name":                             "voicepulse",
		"environment":                      "development",
		"logging.level":                    "info",
		"logging.format":                   "console",
		"pipeline.sentiment_interval":      "12s",
		"pipeline.transcript_buffer_chars": 1000,
		"pipeline.checkpoint_window":       "15s",
		"pipeline.sample_rate":             22050,
		"pipeline.chunk_duration":          "2s",
		"pipeline.batch_duration":          "10s",
		"llm.enabled":                      false,
		"llm.dialect":                      "openai",
		"llm.base_url":                     "https://api.openai.com",
		"llm.api_key":                      "",
		"llm.model":                        "gpt-4",
		"llm.temperature":                  0.3,
		"llm.max_tokens":                   200,
		"llm.timeout":                      "30s",
		"llm.max_retries":                  2,
		"transcription.enabled":            false,
		"transcription.url":                "https://api.openai.com",
		"transcription.api_key":            "",
		"transcription.model":              "whisper-1",
		"transcription.language":           "en",
		"transcription.timeout":            "60s",
		"transcription.word_timings":       false,
		"transcription.max_retries":        2,
		"transcription.max_in_flight":      1,
		"observability.enabled":            false,
		"observability.endpoint":           "localhost:4318",
		"observability.insecure":           true,
		"observability.sample_rate":        1.0,
		"store.enabled":                    false,
		"store.path":                       "voicepulse.db",
		"store.busy_timeout":               "5s",
		"store.slow_query_threshold":       "200ms",
		"store.log_level":                  "warn",
	}
}

// ApplyDefaults fills zero values that were not provided by any source.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "voicepulse"
	}
	c.ServiceConfig.ApplyDefaults()

	p := &c.Pipeline
	if p.SentimentInterval <= 0 {
		p.SentimentInterval = 12 * time.Second
	}
	if p.TranscriptBufferChars <= 0 {
		p.TranscriptBufferChars = 1000
	}
	if p.CheckpointWindow <= 0 {
		p.CheckpointWindow = 15 * time.Second
	}
	if p.SampleRate <= 0 {
		p.SampleRate = 22050
	}
	if p.ChunkDuration <= 0 {
		p.ChunkDuration = 2 * time.Second
	}
	if p.BatchDuration <= 0 {
		p.BatchDuration = 10 * time.Second
	}

	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 200
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = 30 * time.Second
	}
	if c.Transcription.Model == "" {
		c.Transcription.Model = "whisper-1"
	}
	if c.Transcription.Timeout <= 0 {
		c.Transcription.Timeout = 60 * time.Second
	}
	if c.Transcription.MaxInFlight <= 0 {
		c.Transcription.MaxInFlight = 1
	}

	if c.Store.Path == "" {
		c.Store.Path = "voicepulse.db"
	}
	if c.Store.LogLevel == "" {
		c.Store.LogLevel = "warn"
	}
}

// Validate checks the base fields and the struct constraints of every section.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	sections := []struct {
		name  string
		value any
	}{
		{"pipeline", c.Pipeline},
		{"llm", c.LLM},
		{"transcription", c.Transcription},
		{"observability", c.Observability},
		{"store", c.Store},
	}
	for _, s := range sections {
		if err := validation.Validate(s.value); err != nil {
			return fmt.Errorf("config.%s: %w", s.name, err)
		}
	}
	return nil
}

// Load reads configuration for serviceName, applies defaults and validates.
func Load(serviceName string, opts ...LoaderOption) (*Config, error) {
	base := []LoaderOption{WithDefaults(DefaultValues()), WithEnvPrefix("VOICEPULSE")}
	var cfg Config
	if err := LoadConfig(serviceName, &cfg, append(base, opts...)...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
