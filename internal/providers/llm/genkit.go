package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Genkit registers a backend as a genkit model and completes through it, so
// requests pass through genkit's model middleware and tooling.
type Genkit struct {
	g     *genkit.Genkit
	model ai.Model
}

// NewGenkit defines a genkit model that delegates to backend
func NewGenkit(ctx context.Context, backend Provider) (*Genkit, error) {
	g := genkit.Init(ctx)

	model := genkit.DefineModel(
		g,
		"zencode/"+backend.Name(),
		&ai.ModelOptions{
			Label: "ZenCode " + backend.Name(),
			Supports: &ai.ModelSupports{
				Multiturn:  true,
				SystemRole: true,
			},
		},
		func(ctx context.Context, req *ai.ModelRequest, cb ai.ModelStreamCallback) (*ai.ModelResponse, error) {
			text, err := backend.Complete(ctx, fromGenkitMessages(req.Messages))
			if err != nil {
				return nil, err
			}
			return &ai.ModelResponse{
				Request: req,
				Message: &ai.Message{
					Role:    ai.RoleModel,
					Content: []*ai.Part{ai.NewTextPart(text)},
				},
			}, nil
		},
	)
	if model == nil {
		return nil, fmt.Errorf("define genkit model for %s", backend.Name())
	}

	return &Genkit{g: g, model: model}, nil
}

// Name returns the provider name
func (k *Genkit) Name() string { return "genkit" }

// Complete runs the registered model
func (k *Genkit) Complete(ctx context.Context, messages []types.ChatMessage) (string, error) {
	resp, err := k.model.Generate(ctx, &ai.ModelRequest{Messages: toGenkitMessages(messages)}, nil)
	if err != nil {
		return "", fmt.Errorf("genkit completion: %w", err)
	}
	if resp == nil || resp.Message == nil {
		return "", fmt.Errorf("genkit completion: %w", ErrEmptyCompletion)
	}
	text := partsText(resp.Message.Content)
	if text == "" {
		return "", fmt.Errorf("genkit completion: %w", ErrEmptyCompletion)
	}
	return text, nil
}

func toGenkitMessages(messages []types.ChatMessage) []*ai.Message {
	out := make([]*ai.Message, 0, len(messages))
	for _, m := range messages {
		role := ai.RoleUser
		switch m.Role {
		case types.RoleSystem:
			role = ai.RoleSystem
		case types.RoleAssistant:
			role = ai.RoleModel
		}
		out = append(out, &ai.Message{Role: role, Content: []*ai.Part{ai.NewTextPart(m.Content)}})
	}
	return out
}

func fromGenkitMessages(messages []*ai.Message) []types.ChatMessage {
	out := make([]types.ChatMessage, 0, len(messages))
	for _, m := range messages {
		role := types.RoleUser
		switch m.Role {
		case ai.RoleSystem:
			role = types.RoleSystem
		case ai.RoleModel:
			role = types.RoleAssistant
		}
		out = append(out, types.ChatMessage{Role: role, Content: partsText(m.Content)})
	}
	return out
}

func partsText(parts []*ai.Part) string {
	var sb strings.Builder
	for _, p := range parts {
		if p != nil && p.IsText() {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}
