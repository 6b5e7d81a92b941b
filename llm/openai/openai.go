// Package openai implements the llm.Dialect for OpenAI-compatible chat
// completion APIs. Importing it registers the "openai" dialect.
package openai

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kbukum/voicepulse/llm"
)

// DialectName is the registered dialect name.
const DialectName = "openai"

func init() {
	llm.RegisterDialect(DialectName, &Dialect{})
}

// Dialect maps llm types to the /v1/chat/completions wire format.
type Dialect struct{}

// Name returns the dialect name.
func (d *Dialect) Name() string { return DialectName }

// ChatPath returns the chat completions endpoint.
func (d *Dialect) ChatPath() string { return "/v1/chat/completions" }

// HealthPath returns the model listing endpoint.
func (d *Dialect) HealthPath() string { return "/v1/models" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    *float64       `json:"temperature,omitempty"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage llm.Usage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// BuildRequest builds the chat request body. Extra["response_format"] is
// forwarded when present.
func (d *Dialect) BuildRequest(req llm.CompletionRequest) (any, error) {
	if req.Model == "" {
		return nil, errors.New("openai: model is required")
	}
	msgs := req.AllMessages()
	if len(msgs) == 0 {
		return nil, errors.New("openai: at least one message is required")
	}

	body := chatRequest{
		Model:       req.Model,
		Messages:    make([]chatMessage, len(msgs)),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	for i, m := range msgs {
		body.Messages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}
	if rf, ok := req.Extra["response_format"].(map[string]any); ok {
		body.ResponseFormat = rf
	}
	return body, nil
}

// ParseResponse returns the first choice's content.
func (d *Dialect) ParseResponse(body []byte) (*llm.CompletionResponse, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("openai: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: response has no choices")
	}
	return &llm.CompletionResponse{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage:   resp.Usage,
	}, nil
}
