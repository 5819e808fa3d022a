// Package answer holds a generated answer together with the exact context it was produced from.
package answer

import (
	"strings"

	"github.com/kailas-cloud/pokerag/internal/domain/search/mode"
)

// ContextDoc is one document of the context window, in rank order.
type ContextDoc struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Answer is immutable: the context is the one used for generation and is never re-derived.
type Answer struct {
	text             string
	context          []ContextDoc
	dropped          []string
	respMode         mode.Mode
	promptTokens     int
	completionTokens int
}

// New creates an Answer. context and dropped are copied.
func New(text string, context []ContextDoc, dropped []string, m mode.Mode) Answer {
	return Answer{
		text:     text,
		context:  append([]ContextDoc(nil), context...),
		dropped:  append([]string(nil), dropped...),
		respMode: m,
	}
}

// WithUsage returns a copy carrying token usage reported by the generator.
func (a Answer) WithUsage(prompt, completion int) Answer {
	a.promptTokens = prompt
	a.completionTokens = completion
	return a
}

// Text returns the generated text.
func (a *Answer) Text() string { return a.text }

// Context returns the context documents used for generation.
func (a *Answer) Context() []ContextDoc { return a.context }

// Dropped returns ids of retrieved documents left out to honour the prompt budget.
func (a *Answer) Dropped() []string { return a.dropped }

// Mode returns the response mode.
func (a *Answer) Mode() mode.Mode { return a.respMode }

// PromptTokens returns prompt tokens reported by the generator, 0 when unknown.
func (a *Answer) PromptTokens() int { return a.promptTokens }

// CompletionTokens returns completion tokens reported by the generator, 0 when unknown.
func (a *Answer) CompletionTokens() int { return a.completionTokens }

// ContextText concatenates context document texts in rank order.
func (a *Answer) ContextText() string {
	parts := make([]string, 0, len(a.context))
	for _, d := range a.context {
		if d.Text != "" {
			parts = append(parts, d.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// HasContext reports whether any non-empty context was used.
func (a *Answer) HasContext() bool {
	for _, d := range a.context {
		if strings.TrimSpace(d.Text) != "" {
			return true
		}
	}
	return false
}
