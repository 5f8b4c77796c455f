package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
	"google.golang.org/genai"
)

// Gemini calls the Gemini API through the genai SDK
type Gemini struct {
	client *genai.Client
	opts   Options
}

// NewGemini creates a Gemini provider
func NewGemini(ctx context.Context, opts Options) (*Gemini, error) {
	opts = opts.withDefaults()
	cc := &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, opts: opts}, nil
}

// Name returns the provider name
func (g *Gemini) Name() string { return "gemini" }

// Complete folds system messages into the system instruction and sends the
// rest as user/model turns.
func (g *Gemini) Complete(ctx context.Context, messages []types.ChatMessage) (string, error) {
	system, contents := toGeminiContents(messages)

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(g.opts.Temperature)),
		MaxOutputTokens: int32(g.opts.MaxTokens),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.opts.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini completion: %w", ErrEmptyCompletion)
	}
	return text, nil
}

func toGeminiContents(messages []types.ChatMessage) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case types.RoleSystem:
			system = append(system, m.Content)
		case types.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}
