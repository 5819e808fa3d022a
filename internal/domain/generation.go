package domain

import "context"

// Generator is the opaque text generation boundary: prompt in, text out.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
}

// GenerationRequest is a single prompt with its output ceiling.
type GenerationRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// GenerationResult carries generated text and token usage.
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}
