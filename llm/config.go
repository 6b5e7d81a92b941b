package llm

import (
	"time"

	"github.com/kbukum/voicepulse/httpclient"
	"github.com/kbukum/voicepulse/resilience"
)

const defaultTimeout = 60 * time.Second

// Config describes one chat completion endpoint. Model, Temperature and
// MaxTokens fill in whatever a request leaves unset.
type Config struct {
	// Name labels the adapter in logs, metrics and spans; defaults to
	// "<dialect>-llm".
	Name        string        `yaml:"name" json:"name"`
	Dialect     string        `yaml:"dialect" json:"dialect"`
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	Model       string        `yaml:"model" json:"model"`
	Temperature float64       `yaml:"temperature" json:"temperature"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`

	Auth           *httpclient.AuthConfig           `yaml:"-" json:"-"`
	Retry          *resilience.RetryConfig          `yaml:"-" json:"-"`
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"-" json:"-"`
}

func (c *Config) applyDefaults(dialect string) {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Name == "" {
		c.Name = dialect + "-llm"
	}
}
