package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/paths"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
)

// Input carries everything a prompt is built from
type Input struct {
	Query            string
	Codebase         []types.FileNode
	Components       []types.ComponentDescriptor
	Conversation     []types.ChatMessage
	SystemPrompt     string
	DesignTokens     []types.DesignFile
	Dependencies     *types.Manifest
	ExtraInstruction string
}

// Builder renders Input into chat messages
type Builder struct {
	ns *paths.Namespace
}

// NewBuilder creates a builder that displays import paths through ns
func NewBuilder(ns *paths.Namespace) *Builder {
	return &Builder{ns: ns}
}

// Build returns the message sequence for in. It never fails.
func (b *Builder) Build(in Input) []types.ChatMessage {
	messages := make([]types.ChatMessage, 0, len(in.Conversation)+7)
	messages = append(messages, types.SystemMessage(in.SystemPrompt))
	messages = append(messages, in.Conversation...)

	if len(in.Codebase) > 0 {
		messages = append(messages, types.UserMessage(renderCodebase(in.Codebase)))
	}
	if len(in.DesignTokens) > 0 {
		messages = append(messages, types.UserMessage(renderDesignTokens(in.DesignTokens)))
	}
	if !in.Dependencies.Empty() {
		messages = append(messages, types.UserMessage(renderDependencies(in.Dependencies)))
	}
	if len(in.Components) > 0 {
		messages = append(messages, types.UserMessage(b.renderComponents(in.Components)))
	}
	if in.ExtraInstruction != "" {
		messages = append(messages, types.UserMessage(in.ExtraInstruction))
	}

	return append(messages, types.UserMessage(in.Query))
}

func renderCodebase(files []types.FileNode) string {
	var sb strings.Builder
	sb.WriteString("Current codebase structure: \n")
	for _, f := range files {
		fmt.Fprintf(&sb, "{ fileName: %s, filePath: %s, fileContent: %s } \n\n", f.FileName, f.FilePath, f.FileContent)
	}
	return sb.String()
}

func renderDesignTokens(files []types.DesignFile) string {
	var sb strings.Builder
	sb.WriteString("Design system files. Follow these tokens, classes and variables for all styling:\n\n")
	for _, f := range files {
		fmt.Fprintf(&sb, "File: %s\n%s\n\n", f.Path, f.Content)
	}
	return sb.String()
}

func renderDependencies(m *types.Manifest) string {
	var sb strings.Builder
	sb.WriteString("Approved npm packages. Do not import any package that is not listed here:\n")
	fmt.Fprintf(&sb, "Dependencies: %s\n", strings.Join(sortedKeys(m.Dependencies), ", "))
	fmt.Fprintf(&sb, "Dev dependencies: %s\n", strings.Join(sortedKeys(m.DevDependencies), ", "))
	return sb.String()
}

// renderComponents writes the enterprise-components template in caller order
func (b *Builder) renderComponents(components []types.ComponentDescriptor) string {
	var sb strings.Builder
	sb.WriteString("Enterprise components available for this request. ")
	sb.WriteString("Use them instead of writing new ones and import them exactly as shown.\n\n")

	for i, c := range components {
		fmt.Fprintf(&sb, "Component %d: %s\n", i+1, c.Name)
		fmt.Fprintf(&sb, "Import path: %s\n", b.ns.ToAlias(c.Path))
		fmt.Fprintf(&sb, "Description: %s\n", orNone(c.Description))
		fmt.Fprintf(&sb, "Use cases: %s\n", orNone(c.UseCase))
		fmt.Fprintf(&sb, "Required dependencies: %s\n", orNone(strings.Join(c.Dependencies, ", ")))
		fmt.Fprintf(&sb, "Props: %s\n", orNone(c.InputProps))
		if len(c.CodeSamples) > 0 {
			sb.WriteString("Code examples:\n")
			for j, sample := range c.CodeSamples {
				fmt.Fprintf(&sb, "%d. %s\n", j+1, sample)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "None"
	}
	return s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
