package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pokerag/internal/domain"
)

func testGenerator(url string) *Generator {
	return NewGenerator(&Config{
		APIKey:   "test-key",
		BaseURL:  url,
		Model:    "gpt-test",
		Provider: "test",
		Logger:   zap.NewNop(),
	})
}

func TestGenerator_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var body struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			Messages  []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Model != "gpt-test" || body.MaxTokens != 256 {
			t.Errorf("unexpected request: %+v", body)
		}
		if len(body.Messages) != 1 || body.Messages[0].Content != "What type is Pikachu?" {
			t.Errorf("unexpected messages: %+v", body.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "  Pikachu is Electric.  "}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16}
		}`))
	}))
	defer server.Close()

	res, err := testGenerator(server.URL).Generate(context.Background(), domain.GenerationRequest{
		Prompt:    "What type is Pikachu?",
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if res.Text != "Pikachu is Electric." {
		t.Errorf("text = %q", res.Text)
	}
	if res.PromptTokens != 12 || res.CompletionTokens != 4 {
		t.Errorf("usage = %d/%d", res.PromptTokens, res.CompletionTokens)
	}
}

func TestGenerator_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "cmpl-1", "object": "chat.completion", "choices": []}`))
	}))
	defer server.Close()

	_, err := testGenerator(server.URL).Generate(context.Background(), domain.GenerationRequest{Prompt: "x"})
	if !errors.Is(err, domain.ErrGenerationFailure) {
		t.Fatalf("expected ErrGenerationFailure, got %v", err)
	}
}

func TestGenerator_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"bad request", http.StatusBadRequest, domain.ErrGenerationFailure},
		{"not found", http.StatusNotFound, domain.ErrGenerationFailure},
		{"overloaded", http.StatusServiceUnavailable, domain.ErrProviderUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeAPIError(w, tt.status, "nope")
			}))
			defer server.Close()

			_, err := testGenerator(server.URL).Generate(context.Background(), domain.GenerationRequest{Prompt: "x"})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestGenerator_HealthCheck(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"up", http.StatusOK, false},
		{"down", http.StatusServiceUnavailable, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
			}))
			defer server.Close()

			err := testGenerator(server.URL).HealthCheck(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
