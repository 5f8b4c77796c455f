// Package llm adapts chat-completion backends to a single Complete call.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GriffinCanCode/ZenCode/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/ZenCode/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/ZenCode/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
	"go.uber.org/zap"
)

// Defaults applied when options leave a field unset
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 8000

	OpenAIBaseURL   = "https://api.openai.com/v1"
	DeepSeekBaseURL = "https://api.deepseek.com"
	DeepSeekModel   = "deepseek-chat"
	GeminiModel     = "gemini-2.0-flash"
)

// ErrEmptyCompletion is returned when a backend answers with no text
var ErrEmptyCompletion = errors.New("empty completion")

// Provider produces one completion for an ordered message list
type Provider interface {
	Name() string
	Complete(ctx context.Context, messages []types.ChatMessage) (string, error)
}

// Options tunes a provider
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

func (o Options) withDefaults() Options {
	if o.Temperature == 0 {
		o.Temperature = DefaultTemperature
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.Timeout == 0 {
		o.Timeout = 120 * time.Second
	}
	return o
}

// OptionsFromConfig maps the LLM config section onto provider options
func OptionsFromConfig(cfg config.LLMConfig) Options {
	return Options{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
	}
}

// New builds the named provider wrapped with metrics and a circuit breaker
func New(ctx context.Context, name string, opts Options, logger *zap.Logger, metrics *monitoring.Metrics) (Provider, error) {
	opts = opts.withDefaults()

	var (
		p   Provider
		err error
	)
	switch strings.ToLower(name) {
	case "openai":
		if opts.BaseURL == "" {
			opts.BaseURL = OpenAIBaseURL
		}
		p = NewOpenAI("openai", opts)
	case "deepseek":
		if opts.BaseURL == "" || opts.BaseURL == OpenAIBaseURL {
			opts.BaseURL = DeepSeekBaseURL
		}
		if opts.Model == "" || strings.HasPrefix(opts.Model, "gpt-") {
			opts.Model = DeepSeekModel
		}
		p = NewOpenAI("deepseek", opts)
	case "gemini":
		if opts.BaseURL == OpenAIBaseURL {
			opts.BaseURL = ""
		}
		if opts.Model == "" || strings.HasPrefix(opts.Model, "gpt-") {
			opts.Model = GeminiModel
		}
		p, err = NewGemini(ctx, opts)
	case "genkit":
		if opts.BaseURL == "" {
			opts.BaseURL = OpenAIBaseURL
		}
		p, err = NewGenkit(ctx, NewOpenAI("genkit-backend", opts))
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", name)
	}
	if err != nil {
		return nil, err
	}

	return Instrument(p, logger, metrics), nil
}

// Instrument wraps p with a breaker, metrics and logging
func Instrument(p Provider, logger *zap.Logger, metrics *monitoring.Metrics) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	breaker := resilience.New("llm-"+p.Name(), resilience.Settings{
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("llm circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &instrumented{inner: p, breaker: breaker, logger: logger, metrics: metrics}
}

type instrumented struct {
	inner   Provider
	breaker *resilience.Breaker
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

func (i *instrumented) Name() string { return i.inner.Name() }

func (i *instrumented) Complete(ctx context.Context, messages []types.ChatMessage) (string, error) {
	start := time.Now()
	text, err := resilience.Do(ctx, i.breaker, func(ctx context.Context) (string, error) {
		return i.inner.Complete(ctx, messages)
	})
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
		if errors.Is(err, context.DeadlineExceeded) {
			status = "timeout"
		}
	}
	i.metrics.RecordLLMCall(i.inner.Name(), status, duration)
	i.logger.Debug("llm completion",
		zap.String("provider", i.inner.Name()),
		zap.Int("messages", len(messages)),
		zap.Int("chars", len(text)),
		zap.Duration("duration", duration),
		zap.String("status", status),
	)
	return text, err
}
