package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
)

func TestReactBase(t *testing.T) {
	r, err := ReactBase()
	require.NoError(t, err)
	require.Len(t, r.Steps, 12)

	assert.Equal(t, types.StepTextDisplay, r.Steps[0].Type)
	assert.Empty(t, r.Steps[0].Path)

	paths := make([]string, 0, len(r.Steps))
	for i, s := range r.Steps {
		assert.Equal(t, i, s.ID)
		if s.Type == types.StepCreateFile {
			assert.Equal(t, "Creating file "+s.Path, s.Title)
			paths = append(paths, s.Path)
		}
	}
	assert.Contains(t, paths, "package.json")
	assert.Contains(t, paths, "tsconfig.json")
	assert.Contains(t, paths, "src/App.tsx")
}

func TestReactBaseReturnsCopy(t *testing.T) {
	a, err := ReactBase()
	require.NoError(t, err)
	a.Steps[1].Content = "mutated"

	b, err := ReactBase()
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", b.Steps[1].Content)
}

func TestTsconfigAlias(t *testing.T) {
	r, err := ReactBase()
	require.NoError(t, err)
	for _, s := range r.Steps {
		if s.Path == "tsconfig.json" {
			assert.Contains(t, s.Content, `"@/*": ["./src/*"]`)
		}
	}
}
