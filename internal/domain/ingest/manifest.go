package ingest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
)

type packageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Description     string            `json:"description"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	Scripts         map[string]string `json:"scripts"`
}

// ParseManifest decodes a package.json into the approved dependency set
func ParseManifest(path, content string) (*types.Manifest, error) {
	var pkg packageJSON
	if err := sonic.UnmarshalString(content, &pkg); err != nil {
		return nil, fmt.Errorf("invalid package.json at %s: %w", path, err)
	}
	return &types.Manifest{
		Path:            path,
		Name:            pkg.Name,
		Version:         pkg.Version,
		Dependencies:    pkg.Dependencies,
		DevDependencies: pkg.DevDependencies,
		Scripts:         pkg.Scripts,
		Content:         content,
	}, nil
}

// manifestText renders a manifest as one line for embedding
func manifestText(m *types.Manifest) string {
	return strings.Join([]string{
		fmt.Sprintf("Package %s version %s", m.Name, m.Version),
		"Main dependencies: " + strings.Join(keys(m.Dependencies), ", "),
		"Dev dependencies: " + strings.Join(keys(m.DevDependencies), ", "),
		"Available scripts: " + strings.Join(keys(m.Scripts), ", "),
	}, " ")
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
