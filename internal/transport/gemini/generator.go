package gemini

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/pokerag/internal/domain"
	"github.com/kailas-cloud/pokerag/internal/metrics"
	"github.com/kailas-cloud/pokerag/internal/resilience"
)

// Generator calls Models.GenerateContent.
type Generator struct {
	client *genai.Client
	model  string
	exec   *resilience.Executor
	logger *zap.Logger
}

// NewGenerator creates a Gemini text generator.
func NewGenerator(ctx context.Context, cfg *Config) (*Generator, error) {
	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Generator{
		client: client,
		model:  cfg.Model,
		exec:   cfg.Executor,
		logger: loggerOrNop(cfg.Logger),
	}, nil
}

// Generate implements domain.Generator.
func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	temp := req.Temperature
	gcfg := &genai.GenerateContentConfig{Temperature: &temp}
	if req.MaxTokens > 0 {
		// #nosec G115 -- bounded by min
		gcfg.MaxOutputTokens = int32(min(req.MaxTokens, math.MaxInt32))
	}

	var out domain.GenerationResult
	start := time.Now()
	err := run(ctx, g.exec, providerName+".generate", func(ctx context.Context) error {
		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), gcfg)
		if err != nil {
			return mapError("generation", err, domain.ErrGenerationFailure)
		}
		text := strings.TrimSpace(resp.Text())
		if text == "" {
			return fmt.Errorf("empty completion: %w", domain.ErrGenerationFailure)
		}
		out = domain.GenerationResult{Text: text}
		if u := resp.UsageMetadata; u != nil {
			out.PromptTokens = int(u.PromptTokenCount)
			out.CompletionTokens = int(u.CandidatesTokenCount)
		}
		return nil
	})
	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(providerName, g.model, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(providerName, g.model, errorType(err)).Inc()
		g.logger.Debug("generation failed", zap.String("provider", providerName), zap.Error(err))
		return domain.GenerationResult{}, err
	}

	metrics.GenerationRequestsTotal.WithLabelValues(providerName, g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(providerName, g.model).Observe(duration.Seconds())
	metrics.GenerationTokensTotal.WithLabelValues(providerName, g.model, "prompt").Add(float64(out.PromptTokens))
	metrics.GenerationTokensTotal.WithLabelValues(providerName, g.model, "completion").Add(float64(out.CompletionTokens))
	return out, nil
}
