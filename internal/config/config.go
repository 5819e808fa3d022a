// Package config loads the YAML configuration for the pokerag service and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported provider and cache driver names.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	CacheNone  = "none"
	CacheRedis = "redis"
	CacheBolt  = "bolt"
)

// Config holds the pokerag configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
	Store      StoreConfig      `yaml:"store"`
	Cache      CacheConfig      `yaml:"cache"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Prompt     PromptConfig     `yaml:"prompt"`
	Confidence ConfidenceConfig `yaml:"confidence"`
	Resilience ResilienceConfig `yaml:"resilience"`
	Eval       EvalConfig       `yaml:"eval"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: determined by env)
	Format string `yaml:"format"` // json or console (default: determined by env)
}

// StoreConfig holds document store settings.
type StoreConfig struct {
	Path           string `yaml:"path"`
	OpenTimeoutSec int    `yaml:"open_timeout_sec"`
}

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // none, redis, bolt (default: none)
	Bucket           string   `yaml:"bucket"`
	TTLSec           int      `yaml:"ttl_sec"` // 0 = no expiry
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"` // namespaces keys when deployments share a redis
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// GenerationConfig holds generation provider settings.
type GenerationConfig struct {
	Provider         string  `yaml:"provider"`
	APIKey           string  `yaml:"api_key"`
	BaseURL          string  `yaml:"base_url"`
	Model            string  `yaml:"model"`
	Temperature      float32 `yaml:"temperature"`
	MaxTokensNormal  int     `yaml:"max_tokens_normal"`
	MaxTokensEngaged int     `yaml:"max_tokens_engaged"`
	TimeoutSec       int     `yaml:"timeout_sec"`
}

// RetrievalConfig holds topK limits and keyword hint settings.
type RetrievalConfig struct {
	DefaultTopKNormal  int  `yaml:"default_top_k_normal"`
	DefaultTopKEngaged int  `yaml:"default_top_k_engaged"`
	MaxTopK            int  `yaml:"max_top_k"`
	KeywordHints       bool `yaml:"keyword_hints"`
}

// PromptConfig holds the context budget. Zero disables a limit.
type PromptConfig struct {
	BudgetTokens int `yaml:"budget_tokens"`
	BudgetChars  int `yaml:"budget_chars"`
}

// ConfidenceConfig holds the hallucination warning threshold.
type ConfidenceConfig struct {
	RiskThreshold float64 `yaml:"risk_threshold"`
}

// ResilienceConfig holds retry, breaker and rate limit settings for provider calls.
type ResilienceConfig struct {
	RetryMaxAttempts      int     `yaml:"retry_max_attempts"`
	RetryInitialBackoffMS int     `yaml:"retry_initial_backoff_ms"`
	RetryMaxBackoffMS     int     `yaml:"retry_max_backoff_ms"`
	BreakerEnabled        *bool   `yaml:"breaker_enabled"`
	BreakerMinRequests    int     `yaml:"breaker_min_requests"`
	BreakerFailureRatio   float64 `yaml:"breaker_failure_ratio"`
	BreakerOpenSec        int     `yaml:"breaker_open_timeout_sec"`
	RateLimitPerSec       float64 `yaml:"rate_limit_per_sec"` // 0 = unlimited
	RateLimitBurst        int     `yaml:"rate_limit_burst"`
}

// EvalConfig holds evaluation harness settings.
type EvalConfig struct {
	Workers            int     `yaml:"workers"`
	OutputDir          string  `yaml:"output_dir"`
	HallucinationLog   string  `yaml:"hallucination_log"`
	RelevanceThreshold float64 `yaml:"relevance_threshold"`
	Ragas              bool    `yaml:"ragas"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse expands environment variables in data, then decodes, defaults and validates it.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	c.applyHTTPDefaults()
	c.applyStorageDefaults()
	c.applyProviderDefaults()
	c.applyPipelineDefaults()
	c.applyResilienceDefaults()
}

func (c *Config) applyHTTPDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
}

func (c *Config) applyStorageDefaults() {
	if c.Store.Path == "" {
		c.Store.Path = "data/pokerag.db"
	}
	if c.Store.OpenTimeoutSec <= 0 {
		c.Store.OpenTimeoutSec = 5
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheNone
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
}

func (c *Config) applyProviderDefaults() {
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderOpenAI
	}
	if c.Embedding.Model == "" {
		switch c.Embedding.Provider {
		case ProviderGemini:
			c.Embedding.Model = "text-embedding-004"
		default:
			c.Embedding.Model = "text-embedding-3-small"
		}
	}
	if c.Embedding.Dimensions == 0 {
		switch c.Embedding.Provider {
		case ProviderGemini:
			c.Embedding.Dimensions = 768
		default:
			c.Embedding.Dimensions = 1536
		}
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}

	if c.Generation.Provider == "" {
		c.Generation.Provider = c.Embedding.Provider
	}
	if c.Generation.APIKey == "" && c.Generation.Provider == c.Embedding.Provider {
		c.Generation.APIKey = c.Embedding.APIKey
	}
	if c.Generation.Model == "" {
		switch c.Generation.Provider {
		case ProviderGemini:
			c.Generation.Model = "gemini-1.5-flash"
		default:
			c.Generation.Model = "gpt-4o-mini"
		}
	}
	if c.Generation.MaxTokensNormal <= 0 {
		c.Generation.MaxTokensNormal = 256
	}
	if c.Generation.MaxTokensEngaged <= 0 {
		c.Generation.MaxTokensEngaged = 1024
	}
	if c.Generation.TimeoutSec <= 0 {
		c.Generation.TimeoutSec = 60
	}
}

func (c *Config) applyPipelineDefaults() {
	if c.Retrieval.DefaultTopKNormal == 0 {
		c.Retrieval.DefaultTopKNormal = 2
	}
	if c.Retrieval.DefaultTopKEngaged == 0 {
		c.Retrieval.DefaultTopKEngaged = 4
	}
	if c.Retrieval.MaxTopK == 0 {
		c.Retrieval.MaxTopK = 10
	}
	if c.Prompt.BudgetTokens == 0 && c.Prompt.BudgetChars == 0 {
		c.Prompt.BudgetTokens = 2000
	}
	if c.Confidence.RiskThreshold == 0 {
		c.Confidence.RiskThreshold = 0.3
	}
	if c.Eval.Workers <= 0 {
		c.Eval.Workers = 1
	}
	if c.Eval.OutputDir == "" {
		c.Eval.OutputDir = "eval_results"
	}
	if c.Eval.RelevanceThreshold == 0 {
		c.Eval.RelevanceThreshold = 0.3
	}
}

func (c *Config) applyResilienceDefaults() {
	r := &c.Resilience
	if r.RetryMaxAttempts <= 0 {
		r.RetryMaxAttempts = 3
	}
	if r.RetryInitialBackoffMS <= 0 {
		r.RetryInitialBackoffMS = 200
	}
	if r.RetryMaxBackoffMS <= 0 {
		r.RetryMaxBackoffMS = 2000
	}
	if r.BreakerEnabled == nil {
		enabled := true
		r.BreakerEnabled = &enabled
	}
	if r.BreakerMinRequests <= 0 {
		r.BreakerMinRequests = 10
	}
	if r.BreakerFailureRatio <= 0 {
		r.BreakerFailureRatio = 0.5
	}
	if r.BreakerOpenSec <= 0 {
		r.BreakerOpenSec = 30
	}
	if r.RateLimitPerSec > 0 && r.RateLimitBurst <= 0 {
		r.RateLimitBurst = 1
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if err := validateProvider("embedding.provider", c.Embedding.Provider); err != nil {
		return err
	}
	if err := validateProvider("generation.provider", c.Generation.Provider); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	switch c.Cache.Driver {
	case CacheNone, CacheBolt:
	case CacheRedis:
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("cache.driver must be %q, %q or %q, got %q", CacheNone, CacheRedis, CacheBolt, c.Cache.Driver)
	}
	if t := c.Confidence.RiskThreshold; t <= 0 || t >= 1 {
		return fmt.Errorf("confidence.risk_threshold must be in (0, 1), got %v", t)
	}
	r := c.Retrieval
	if r.MaxTopK < 1 || r.MaxTopK > 10 {
		return fmt.Errorf("retrieval.max_top_k must be between 1 and 10, got %d", r.MaxTopK)
	}
	if r.DefaultTopKNormal < 1 || r.DefaultTopKNormal > r.MaxTopK {
		return fmt.Errorf("retrieval.default_top_k_normal must be between 1 and %d, got %d", r.MaxTopK, r.DefaultTopKNormal)
	}
	if r.DefaultTopKEngaged < 1 || r.DefaultTopKEngaged > r.MaxTopK {
		return fmt.Errorf("retrieval.default_top_k_engaged must be between 1 and %d, got %d", r.MaxTopK, r.DefaultTopKEngaged)
	}
	if c.Prompt.BudgetTokens < 0 || c.Prompt.BudgetChars < 0 {
		return fmt.Errorf("prompt budgets must not be negative")
	}
	if f := c.Resilience.BreakerFailureRatio; f > 1 {
		return fmt.Errorf("resilience.breaker_failure_ratio must be in (0, 1], got %v", f)
	}
	return nil
}

func validateProvider(field, name string) error {
	switch name {
	case ProviderOpenAI, ProviderGemini:
		return nil
	}
	return fmt.Errorf("%s must be %q or %q, got %q", field, ProviderOpenAI, ProviderGemini, name)
}

// EmbeddingTimeout is the per-attempt deadline for embedding calls.
func (c *Config) EmbeddingTimeout() time.Duration {
	return time.Duration(c.Embedding.TimeoutSec) * time.Second
}

// GenerationTimeout is the per-attempt deadline for generation calls.
func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.Generation.TimeoutSec) * time.Second
}

// CacheTTL is the embedding cache entry lifetime. Zero means no expiry.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSec) * time.Second
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests run from package directories
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
