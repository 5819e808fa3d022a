package pokerag

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	storePath   string
	openTimeout time.Duration

	embedder  Embedder
	space     Space
	generator Generator

	topKNormal    int
	topKEngaged   int
	keywordHints  bool
	budgetTokens  int
	riskThreshold float64

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithStorePath sets the bbolt file holding documents and their embeddings.
// Required.
func WithStorePath(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.storePath = path
	})
}

// WithOpenTimeout bounds the wait for the store file lock. Default: 1s.
func WithOpenTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.openTimeout = d
	})
}

// WithEmbedder sets the embedding provider and the space its vectors live in.
// Required.
func WithEmbedder(e Embedder, space Space) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
		c.space = space
	})
}

// WithGenerator sets the answer generation provider. Without it Ask fails;
// Retrieve and Score still work.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithTopK sets the default number of retrieved documents per mode.
// Defaults: 2 (normal), 4 (engaged).
func WithTopK(normal, engaged int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topKNormal = normal
		c.topKEngaged = engaged
	})
}

// WithKeywordHints derives facet filters from question words such as
// "fire type" or "legendary" when no explicit filter is given.
func WithKeywordHints() Option {
	return optionFunc(func(c *clientConfig) {
		c.keywordHints = true
	})
}

// WithPromptBudget caps the estimated context tokens sent to the generator.
// Default: 2000.
func WithPromptBudget(tokens int) Option {
	return optionFunc(func(c *clientConfig) {
		c.budgetTokens = tokens
	})
}

// WithRiskThreshold sets the hallucination risk above which answers carry
// a warning. Values outside (0, 1) select the default 0.3.
func WithRiskThreshold(t float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.riskThreshold = t
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
