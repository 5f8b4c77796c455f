// Package template serves the starter project that seeds a fresh workspace.
package template

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
)

//go:embed react_base.json
var reactBase []byte

var (
	once   sync.Once
	base   *types.GenerationResult
	decErr error
)

// ReactBase returns a copy of the Vite + React + TypeScript starter steps.
func ReactBase() (*types.GenerationResult, error) {
	once.Do(func() {
		var r types.GenerationResult
		if err := sonic.Unmarshal(reactBase, &r); err != nil {
			decErr = fmt.Errorf("decode react template: %w", err)
			return
		}
		base = &r
	})
	if decErr != nil {
		return nil, decErr
	}

	steps := make([]types.EditStep, len(base.Steps))
	copy(steps, base.Steps)
	return types.NewGenerationResult(steps), nil
}
