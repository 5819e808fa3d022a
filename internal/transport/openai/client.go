// Package openai adapts OpenAI-compatible APIs (OpenAI, Nebius, vLLM) to the
// domain embedding and generation boundaries.
package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pokerag/internal/resilience"
)

// healthTimeout bounds the ListModels probe used by health checks.
const healthTimeout = 5 * time.Second

// Config holds the provider settings shared by the embedder and the generator.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	User       string
	Provider   string
	// Executor guards every call. Nil runs calls once without a deadline.
	Executor *resilience.Executor
	Logger   *zap.Logger
}

func newClient(cfg *Config) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientCfg)
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

func run(ctx context.Context, exec *resilience.Executor, op string, fn func(context.Context) error) error {
	if exec == nil {
		return fn(ctx)
	}
	return exec.Execute(ctx, op, fn, nil)
}

// probe lists models, a free endpoint on every OpenAI-compatible server.
func probe(ctx context.Context, client *openai.Client) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	if _, err := client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
