// Package ollama implements the llm.Dialect for a local Ollama server's
// native chat API. Importing it registers the "ollama" dialect.
package ollama

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kbukum/voicepulse/llm"
)

// DialectName is the registered dialect name.
const DialectName = "ollama"

func init() {
	llm.RegisterDialect(DialectName, &Dialect{})
}

// Dialect maps llm types to Ollama's /api/chat format.
type Dialect struct{}

// Name returns the dialect name.
func (d *Dialect) Name() string { return DialectName }

// ChatPath returns the chat endpoint.
func (d *Dialect) ChatPath() string { return "/api/chat" }

// HealthPath returns the local model listing endpoint.
func (d *Dialect) HealthPath() string { return "/api/tags" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   any           `json:"format,omitempty"`
	Options  chatOptions   `json:"options"`
}

type chatResponse struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	PromptEvalCount int         `json:"prompt_eval_count,omitempty"`
	EvalCount       int         `json:"eval_count,omitempty"`
	Error           string      `json:"error,omitempty"`
}

// BuildRequest builds a non-streaming chat request. Extra["format"] is
// forwarded so callers can request JSON mode.
func (d *Dialect) BuildRequest(req llm.CompletionRequest) (any, error) {
	if req.Model == "" {
		return nil, errors.New("ollama: model is required")
	}
	msgs := req.AllMessages()
	body := chatRequest{
		Model:    req.Model,
		Messages: make([]chatMessage, len(msgs)),
		Options:  chatOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens},
	}
	for i, m := range msgs {
		body.Messages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}
	if format, ok := req.Extra["format"]; ok {
		body.Format = format
	}
	return body, nil
}

// ParseResponse maps the chat response and its token counters.
func (d *Dialect) ParseResponse(body []byte) (*llm.CompletionResponse, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ollama: decode response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("ollama: %s", resp.Error)
	}
	return &llm.CompletionResponse{
		Content: resp.Message.Content,
		Model:   resp.Model,
		Usage: llm.Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
	}, nil
}
