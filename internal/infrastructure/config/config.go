package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Logging    LogConfig
	RateLimit  RateLimitConfig
	LLM        LLMConfig
	Vector     VectorConfig
	Store      StoreConfig
	Generation GenerationConfig
	Ingest     IngestConfig
	Session    SessionConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// LLMConfig selects and tunes the completion provider.
type LLMConfig struct {
	Provider    string        `envconfig:"LLM_PROVIDER" default:"openai"`
	BaseURL     string        `envconfig:"LLM_BASE_URL" default:"https://api.openai.com/v1"`
	APIKey      string        `envconfig:"LLM_API_KEY"`
	Model       string        `envconfig:"LLM_MODEL" default:"gpt-4o"`
	Temperature float64       `envconfig:"LLM_TEMPERATURE" default:"0.7"`
	MaxTokens   int           `envconfig:"LLM_MAX_TOKENS" default:"8000"`
	Timeout     time.Duration `envconfig:"LLM_TIMEOUT" default:"120s"`
}

// VectorConfig points at the records API of the vector index.
type VectorConfig struct {
	BaseURL string        `envconfig:"VECTOR_BASE_URL" default:"http://localhost:5080"`
	APIKey  string        `envconfig:"VECTOR_API_KEY"`
	TopK    int           `envconfig:"VECTOR_TOP_K" default:"5"`
	Timeout time.Duration `envconfig:"VECTOR_TIMEOUT" default:"15s"`
}

// StoreConfig holds the component/session store DSN.
type StoreConfig struct {
	DSN string `envconfig:"STORE_DSN" default:"zencode.db"`
}

// GenerationConfig holds the repository conventions used while generating.
type GenerationConfig struct {
	InternalPatterns []string `envconfig:"INTERNAL_PATTERNS" default:"src/components/ui/**"`
	SourcePrefix     string   `envconfig:"SOURCE_PREFIX" default:"src/"`
	AliasPrefix      string   `envconfig:"ALIAS_PREFIX" default:"@/"`
	ManifestName     string   `envconfig:"MANIFEST_NAME" default:"package.json"`
	PromptProfile    string   `envconfig:"PROMPT_PROFILE"`
}

// IngestConfig tunes repository ingestion.
type IngestConfig struct {
	GitHubAPI   string `envconfig:"GITHUB_API" default:"https://api.github.com"`
	GitHubToken string `envconfig:"GITHUB_TOKEN"`
	BatchSize   int    `envconfig:"INGEST_BATCH_SIZE" default:"10"`
	MaxFileSize int64  `envconfig:"INGEST_MAX_FILE_SIZE" default:"262144"`
}

// SessionConfig bounds the in-memory session cache.
type SessionConfig struct {
	CacheSize int           `envconfig:"SESSION_CACHE_SIZE" default:"1024"`
	IdleTTL   time.Duration `envconfig:"SESSION_IDLE_TTL" default:"30m"`
}

// Providers lists the supported LLM provider names.
var Providers = []string{"openai", "deepseek", "gemini", "genkit"}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate checks values envconfig cannot express as tags.
func (c *Config) Validate() error {
	provider := strings.ToLower(c.LLM.Provider)
	known := false
	for _, p := range Providers {
		if p == provider {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown LLM provider %q (want one of %s)", c.LLM.Provider, strings.Join(Providers, ", "))
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive")
	}
	if c.Vector.TopK <= 0 {
		return fmt.Errorf("VECTOR_TOP_K must be positive")
	}
	if len(c.Generation.InternalPatterns) == 0 {
		return fmt.Errorf("INTERNAL_PATTERNS must not be empty")
	}
	if c.Ingest.BatchSize <= 0 {
		return fmt.Errorf("INGEST_BATCH_SIZE must be positive")
	}
	if c.Session.CacheSize <= 0 {
		return fmt.Errorf("SESSION_CACHE_SIZE must be positive")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o",
			Temperature: 0.7,
			MaxTokens:   8000,
			Timeout:     120 * time.Second,
		},
		Vector: VectorConfig{
			BaseURL: "http://localhost:5080",
			TopK:    5,
			Timeout: 15 * time.Second,
		},
		Store: StoreConfig{
			DSN: "zencode.db",
		},
		Generation: GenerationConfig{
			InternalPatterns: []string{"src/components/ui/**"},
			SourcePrefix:     "src/",
			AliasPrefix:      "@/",
			ManifestName:     "package.json",
		},
		Ingest: IngestConfig{
			GitHubAPI:   "https://api.github.com",
			BatchSize:   10,
			MaxFileSize: 256 * 1024,
		},
		Session: SessionConfig{
			CacheSize: 1024,
			IdleTTL:   30 * time.Minute,
		},
	}
}
