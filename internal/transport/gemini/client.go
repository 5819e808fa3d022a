// Package gemini adapts the Google Gen AI SDK to the domain embedding and
// generation boundaries.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/pokerag/internal/domain"
	"github.com/kailas-cloud/pokerag/internal/resilience"
)

const providerName = "gemini"

// Config holds Gemini API settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	// Executor guards every call. Nil runs calls once without a deadline.
	Executor *resilience.Executor
	Logger   *zap.Logger
}

func newClient(ctx context.Context, cfg *Config) (*genai.Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return client, nil
}

func run(ctx context.Context, exec *resilience.Executor, op string, fn func(context.Context) error) error {
	if exec == nil {
		return fn(ctx)
	}
	return exec.Execute(ctx, op, fn, nil)
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// mapError maps SDK errors onto the domain taxonomy. Context errors pass through.
func mapError(kind string, err error, permanent error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s request: %w", kind, err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		target := permanent
		if apiErr.Code == 0 || apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500 {
			target = domain.ErrProviderUnavailable
		}
		return fmt.Errorf("%s API error %d %s: %s: %w", kind, apiErr.Code, apiErr.Status, apiErr.Message, target)
	}

	return fmt.Errorf("%s request failed: %v: %w", kind, err, domain.ErrProviderUnavailable)
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrProviderTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, domain.ErrProviderUnavailable):
		return "unavailable"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "api_error"
	}
}
