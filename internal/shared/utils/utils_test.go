package utils

import (
	"strings"
	"testing"

	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasherAlgorithms(t *testing.T) {
	b3 := NewHasher(BLAKE3)
	sha := NewHasher(SHA256)

	assert.Len(t, b3.HashString("abc"), 64)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", sha.HashString("abc"))
	assert.NotEqual(t, b3.HashString("abc"), sha.HashString("abc"))
	assert.Equal(t, b3.HashFields("a", "b"), b3.HashFields("b", "a"))
}

func TestCodebaseDigest(t *testing.T) {
	h := DefaultHasher()
	a := types.FileNode{FileName: "A.tsx", FilePath: "src/A.tsx", FileContent: "a"}
	b := types.FileNode{FileName: "B.tsx", FilePath: "src/B.tsx", FileContent: "b"}

	assert.Empty(t, h.CodebaseDigest(nil))
	assert.Equal(t, h.CodebaseDigest([]types.FileNode{a, b}), h.CodebaseDigest([]types.FileNode{b, a}))

	changed := b
	changed.FileContent = "b2"
	assert.NotEqual(t, h.CodebaseDigest([]types.FileNode{a, b}), h.CodebaseDigest([]types.FileNode{a, changed}))
}

func TestValidateGenerateRequest(t *testing.T) {
	valid := types.GenerateRequest{Query: "add a submit button"}
	require.NoError(t, ValidateGenerateRequest(valid))

	tests := []struct {
		name string
		req  types.GenerateRequest
	}{
		{"empty query", types.GenerateRequest{Query: "   "}},
		{"bad session id", types.GenerateRequest{Query: "q", SessionID: "../etc"}},
		{"bad role", types.GenerateRequest{Query: "q", Conversation: []types.ChatMessage{{Role: "tool", Content: "x"}}}},
		{"empty file path", types.GenerateRequest{Query: "q", Codebase: []types.FileNode{{FileName: "a"}}}},
		{"too long query", types.GenerateRequest{Query: strings.Repeat("a", MaxQuerySize+1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateGenerateRequest(tt.req))
		})
	}
}

func TestValidateGitHubURL(t *testing.T) {
	owner, repo, err := ValidateGitHubURL("https://github.com/acme/design-system.git")
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "design-system", repo)

	_, _, err = ValidateGitHubURL("http://github.com/acme/x")
	assert.Error(t, err)
	_, _, err = ValidateGitHubURL("https://github.com/acme")
	assert.Error(t, err)
}
