// Package llm is a provider-agnostic chat completion client used by the
// tone evaluator.
//
// A Dialect maps the universal CompletionRequest/CompletionResponse types to
// one provider's HTTP wire format. The Adapter pairs a dialect with an
// httpclient.Client and implements
// provider.RequestResponse[CompletionRequest, CompletionResponse], so the
// provider middleware (logging, metrics, tracing, resilience) composes
// around it.
//
// Dialects register themselves by name from their package init:
//
//	import _ "github.com/kbukum/voicepulse/llm/openai"
//
//	adapter, err := llm.New(llm.Config{Dialect: "openai", BaseURL: url, Model: "gpt-4"})
//	resp, err := adapter.Execute(ctx, llm.CompletionRequest{SystemPrompt: system, Messages: msgs})
package llm
