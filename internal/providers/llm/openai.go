package llm

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/ZenCode/backend/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
	"github.com/go-resty/resty/v2"
)

// OpenAI talks to any OpenAI-compatible chat completions endpoint
type OpenAI struct {
	name string
	opts Options
	http *httpclient.Client
}

type chatRequest struct {
	Model       string              `json:"model"`
	Messages    []types.ChatMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens"`
	Stream      bool                `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// NewOpenAI creates an OpenAI-compatible provider
func NewOpenAI(name string, opts Options) *OpenAI {
	opts = opts.withDefaults()
	hc := httpclient.New(httpclient.Options{
		Name:    "llm-" + name,
		BaseURL: opts.BaseURL,
		Timeout: opts.Timeout,
		// Completions are expensive; one retry is enough
		MaxRetries: 1,
	})
	if opts.APIKey != "" {
		hc.SetBearerAuth(opts.APIKey)
	}
	return &OpenAI{name: name, opts: opts, http: hc}
}

// Name returns the provider name
func (o *OpenAI) Name() string { return o.name }

// Complete sends the messages as one chat completion request
func (o *OpenAI) Complete(ctx context.Context, messages []types.ChatMessage) (string, error) {
	var out chatResponse
	_, err := o.http.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetBody(chatRequest{
				Model:       o.opts.Model,
				Messages:    messages,
				Temperature: o.opts.Temperature,
				MaxTokens:   o.opts.MaxTokens,
			}).
			SetResult(&out).
			Post("/chat/completions")
	})
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", o.name, err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%s completion: %w", o.name, ErrEmptyCompletion)
	}
	return out.Choices[0].Message.Content, nil
}
