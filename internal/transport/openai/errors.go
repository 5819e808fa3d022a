package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/pokerag/internal/domain"
)

// parseAPIError maps an SDK error onto the domain taxonomy. Transport
// failures, 429 and 5xx are ErrProviderUnavailable; any other status wraps
// permanent. Context errors pass through untouched.
func parseAPIError(kind string, err error, permanent error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s request: %w", kind, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("%s API error %d: %s: %w",
			kind, reqErr.HTTPStatusCode, detail, classifyStatus(reqErr.HTTPStatusCode, permanent))
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s API error %d: %s: %w",
			kind, apiErr.HTTPStatusCode, apiErr.Message, classifyStatus(apiErr.HTTPStatusCode, permanent))
	}

	return fmt.Errorf("%s request failed: %v: %w", kind, err, domain.ErrProviderUnavailable)
}

func classifyStatus(code int, permanent error) error {
	if code == http.StatusTooManyRequests || code >= 500 || code == 0 {
		return domain.ErrProviderUnavailable
	}
	return permanent
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}

// errorType is the metrics label for a failed call.
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
