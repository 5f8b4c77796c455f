package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
)

const describeSystemPrompt = `You document React component libraries. For every component you receive, explain what it renders, list its props precisely and show realistic usage. Reply with JSON only.`

const describeInstruction = `Analyze these React components and describe each one in JSON. Reply with a single object {"components": [...]} holding one entry per file, in the order the files are given. Each entry has: description (string), inputProps (array of {name, type, description, required}), useCases (array of 2-3 strings) and codeExamples (array of 2-3 strings).`

type describedProp struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

type described struct {
	Description  string          `json:"description"`
	InputProps   []describedProp `json:"inputProps"`
	UseCases     []string        `json:"useCases"`
	CodeExamples []string        `json:"codeExamples"`
}

type describeResponse struct {
	Components []json.RawMessage `json:"components"`
}

// describeBatch asks the model to document a batch of component files. Files
// the model skipped or garbled come back as bare descriptors.
func (s *Service) describeBatch(ctx context.Context, batch []types.FileNode) []types.ComponentDescriptor {
	out := make([]types.ComponentDescriptor, len(batch))
	for i, f := range batch {
		out[i] = bareDescriptor(f)
	}

	var sb strings.Builder
	sb.WriteString(describeInstruction)
	for _, f := range batch {
		fmt.Fprintf(&sb, "\n\nFile: %s\n%s", f.FilePath, f.FileContent)
	}

	raw, err := s.llm.Complete(ctx, []types.ChatMessage{
		types.SystemMessage(describeSystemPrompt),
		types.UserMessage(sb.String()),
	})
	if err != nil {
		s.logger.Warn("Component description failed, keeping bare descriptors",
			zap.Int("batch_size", len(batch)),
			zap.Error(err))
		return out
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		s.logger.Warn("No JSON in component description", zap.Int("batch_size", len(batch)))
		return out
	}

	var resp describeResponse
	if err := sonic.UnmarshalString(raw[start:end+1], &resp); err != nil {
		s.logger.Warn("Invalid component description", zap.Error(err))
		return out
	}

	// Entries are matched to files by position
	for i := 0; i < len(batch) && i < len(resp.Components); i++ {
		var d described
		if err := sonic.Unmarshal(resp.Components[i], &d); err != nil {
			s.logger.Debug("Skipping malformed component entry",
				zap.String("path", batch[i].FilePath),
				zap.Error(err))
			continue
		}
		out[i] = applyDescription(out[i], d)
	}
	return out
}

func bareDescriptor(f types.FileNode) types.ComponentDescriptor {
	return types.ComponentDescriptor{
		Path: f.FilePath,
		Name: f.FileName,
		Code: f.FileContent,
	}
}

func applyDescription(c types.ComponentDescriptor, d described) types.ComponentDescriptor {
	c.Description = d.Description
	c.UseCase = strings.Join(d.UseCases, "; ")
	c.CodeSamples = d.CodeExamples
	if len(d.InputProps) > 0 {
		if props, err := sonic.MarshalString(d.InputProps); err == nil {
			c.InputProps = props
		}
	}
	return c
}

// componentText is the text embedded for a component
func componentText(c types.ComponentDescriptor) string {
	parts := []string{c.Name}
	if c.Description != "" {
		parts = append(parts, c.Description)
	}
	if c.UseCase != "" {
		parts = append(parts, c.UseCase)
	}
	return strings.Join(parts, " ")
}
