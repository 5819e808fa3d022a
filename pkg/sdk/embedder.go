package pokerag

import "context"

// Embedder converts text to vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Space identifies the provider, model and dimension of an Embedder.
// Stored vectors from a different space are re-embedded on Rebuild.
type Space struct {
	Provider   string
	Model      string
	Dimensions int
}

// Generator produces answer text from a prompt.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
}

// GenerationRequest is a single completion request.
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
