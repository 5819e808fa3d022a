// Package synthesize turns a question and its ranked context into a generated answer.
package synthesize

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pokerag/internal/domain"
	"github.com/kailas-cloud/pokerag/internal/domain/answer"
	"github.com/kailas-cloud/pokerag/internal/domain/search/mode"
)

// Generation length ceilings per response mode.
const (
	DefaultMaxTokensNormal  = 256
	DefaultMaxTokensEngaged = 1024
	DefaultBudgetTokens     = 2000
)

// Config controls prompt size and generation length.
type Config struct {
	Budget           Budget
	MaxTokensNormal  int
	MaxTokensEngaged int
	Temperature      float32
}

// DefaultConfig returns the built-in synthesizer settings.
func DefaultConfig() Config {
	return Config{
		Budget:           Budget{Tokens: DefaultBudgetTokens},
		MaxTokensNormal:  DefaultMaxTokensNormal,
		MaxTokensEngaged: DefaultMaxTokensEngaged,
	}
}

// Service composes prompts and delegates to a Generator.
type Service struct {
	gen    Generator
	cfg    Config
	logger *zap.Logger
}

// New creates a synthesizer.
func New(gen Generator, cfg Config, logger *zap.Logger) *Service {
	if cfg.MaxTokensNormal <= 0 {
		cfg.MaxTokensNormal = DefaultMaxTokensNormal
	}
	if cfg.MaxTokensEngaged <= 0 {
		cfg.MaxTokensEngaged = DefaultMaxTokensEngaged
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{gen: gen, cfg: cfg, logger: logger}
}

// MaxTokens returns the generation ceiling for m.
func (s *Service) MaxTokens(m mode.Mode) int {
	if m == mode.Engaged {
		return s.cfg.MaxTokensEngaged
	}
	return s.cfg.MaxTokensNormal
}

// Synthesize generates an answer from docs, which must be in rank order.
// Generation errors are returned as is; the caller decides on retries.
func (s *Service) Synthesize(ctx context.Context, question string, m mode.Mode, docs []answer.ContextDoc) (answer.Answer, error) {
	p := BuildPrompt(question, m, docs, s.cfg.Budget)

	start := time.Now()
	res, err := s.gen.Generate(ctx, domain.GenerationRequest{
		Prompt:      p.Text,
		MaxTokens:   s.MaxTokens(m),
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return answer.Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	s.logger.Debug("answer generated",
		zap.String("mode", string(m)),
		zap.Int("context_docs", len(p.Included)),
		zap.Strings("dropped", p.Dropped),
		zap.Int("completion_tokens", res.CompletionTokens),
		zap.Duration("latency", time.Since(start)),
	)
	return answer.New(res.Text, p.Included, p.Dropped, m).WithUsage(res.PromptTokens, res.CompletionTokens), nil
}
