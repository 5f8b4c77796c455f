package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoadProfileDefault(t *testing.T) {
	p, err := LoadProfile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile(), p)
}

func TestLoadProfileYAML(t *testing.T) {
	path := writeFile(t, "profile.yaml", "system_prompt: custom system\n")

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "custom system", p.SystemPrompt)
	assert.Equal(t, DesignInstruction, p.DesignInstruction)
}

func TestLoadProfileTOML(t *testing.T) {
	path := writeFile(t, "profile.toml", "design_instruction = \"keep it simple\"\n")

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, SystemPrompt, p.SystemPrompt)
	assert.Equal(t, "keep it simple", p.DesignInstruction)
}

func TestLoadProfileErrors(t *testing.T) {
	_, err := LoadProfile(writeFile(t, "profile.json", "{}"))
	assert.Error(t, err)

	_, err = LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadProfile(writeFile(t, "bad.toml", "system_prompt = "))
	assert.Error(t, err)
}
