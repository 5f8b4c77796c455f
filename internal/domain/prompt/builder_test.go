package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/paths"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
)

func newBuilder() *Builder {
	return NewBuilder(paths.MustNamespace(paths.DefaultLayout()))
}

func TestBuildMinimal(t *testing.T) {
	msgs := newBuilder().Build(Input{Query: "make a login page", SystemPrompt: "sys"})

	require.Len(t, msgs, 2)
	assert.Equal(t, types.SystemMessage("sys"), msgs[0])
	assert.Equal(t, types.UserMessage("make a login page"), msgs[1])
}

func TestBuildOrder(t *testing.T) {
	in := Input{
		Query:        "add a header",
		SystemPrompt: "sys",
		Conversation: []types.ChatMessage{
			types.UserMessage("first"),
			types.AssistantMessage(`{"steps":[]}`),
		},
		Codebase: []types.FileNode{
			{FileName: "App.tsx", FilePath: "src/App.tsx", FileContent: "export default App"},
		},
		DesignTokens: []types.DesignFile{{Path: "src/index.css", Content: ".btn{color:red}"}},
		Dependencies: &types.Manifest{
			Dependencies:    map[string]string{"react": "^18", "clsx": "^2"},
			DevDependencies: map[string]string{"vite": "^5"},
		},
		Components: []types.ComponentDescriptor{
			{Path: "src/components/ui/Button.tsx", Name: "Button.tsx", Description: "A button"},
		},
		ExtraInstruction: "be nice",
	}

	msgs := newBuilder().Build(in)
	require.Len(t, msgs, 9)

	assert.Equal(t, types.RoleSystem, msgs[0].Role)
	assert.Equal(t, "first", msgs[1].Content)
	assert.Equal(t, types.RoleAssistant, msgs[2].Role)
	assert.Contains(t, msgs[3].Content, "{ fileName: App.tsx, filePath: src/App.tsx, fileContent: export default App }")
	assert.Contains(t, msgs[4].Content, "File: src/index.css")
	assert.Contains(t, msgs[5].Content, "Dependencies: clsx, react")
	assert.Contains(t, msgs[5].Content, "Dev dependencies: vite")
	assert.Contains(t, msgs[6].Content, "Import path: @/components/ui/Button.tsx")
	assert.Equal(t, "be nice", msgs[7].Content)
	assert.Equal(t, "add a header", msgs[8].Content)
}

func TestBuildSkipsEmptyManifest(t *testing.T) {
	msgs := newBuilder().Build(Input{
		Query:        "q",
		SystemPrompt: "sys",
		Dependencies: &types.Manifest{Path: "package.json"},
	})
	assert.Len(t, msgs, 2)
}

func TestRenderComponents(t *testing.T) {
	out := newBuilder().renderComponents([]types.ComponentDescriptor{
		{
			Path:         "src/components/ui/Card.tsx",
			Name:         "Card.tsx",
			UseCase:      "grouping content",
			Dependencies: []string{"src/components/ui/Heading.tsx", "clsx"},
			InputProps:   "title: string",
			CodeSamples:  []string{"<Card title=\"a\" />", "<Card title=\"b\" />"},
		},
		{Path: "lib/Other.tsx", Name: "Other.tsx"},
	})

	assert.Contains(t, out, "Component 1: Card.tsx")
	assert.Contains(t, out, "Description: None")
	assert.Contains(t, out, "Use cases: grouping content")
	assert.Contains(t, out, "Required dependencies: src/components/ui/Heading.tsx, clsx")
	assert.Contains(t, out, "1. <Card title=\"a\" />")
	assert.Contains(t, out, "2. <Card title=\"b\" />")
	assert.Contains(t, out, "Import path: lib/Other.tsx")
	assert.Less(t, strings.Index(out, "Card.tsx"), strings.Index(out, "Other.tsx"))
}

