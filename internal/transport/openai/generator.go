package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pokerag/internal/domain"
	"github.com/kailas-cloud/pokerag/internal/metrics"
	"github.com/kailas-cloud/pokerag/internal/resilience"
)

// Generator produces answers through the chat completions API.
type Generator struct {
	client   *openai.Client
	model    string
	user     string
	provider string
	exec     *resilience.Executor
	logger   *zap.Logger
}

// NewGenerator creates an OpenAI-compatible text generator.
func NewGenerator(cfg *Config) *Generator {
	return &Generator{
		client:   newClient(cfg),
		model:    cfg.Model,
		user:     cfg.User,
		provider: cfg.Provider,
		exec:     cfg.Executor,
		logger:   loggerOrNop(cfg.Logger),
	}
}

// Generate implements domain.Generator. Permanent API errors wrap
// domain.ErrGenerationFailure.
func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		User:        g.user,
	}

	var resp openai.ChatCompletionResponse
	start := time.Now()
	err := run(ctx, g.exec, g.provider+".generate", func(ctx context.Context) error {
		r, err := g.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			return parseAPIError("generation", err, domain.ErrGenerationFailure)
		}
		if len(r.Choices) == 0 {
			return fmt.Errorf("no choices in completion: %w", domain.ErrGenerationFailure)
		}
		resp = r
		return nil
	})
	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(g.provider, g.model, errorType(err)).Inc()
		g.logger.Debug("generation failed", zap.String("provider", g.provider), zap.Error(err))
		return domain.GenerationResult{}, err
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(g.provider, g.model).Observe(duration.Seconds())
	metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "completion").Add(float64(resp.Usage.CompletionTokens))

	return domain.GenerationResult{
		Text:             strings.TrimSpace(resp.Choices[0].Message.Content),
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// HealthCheck verifies API availability.
func (g *Generator) HealthCheck(ctx context.Context) error {
	return probe(ctx, g.client)
}
