package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Profile holds the prompt texts used for generation
type Profile struct {
	SystemPrompt      string `yaml:"system_prompt" toml:"system_prompt"`
	DesignInstruction string `yaml:"design_instruction" toml:"design_instruction"`
}

// DefaultProfile returns the built-in prompts
func DefaultProfile() Profile {
	return Profile{
		SystemPrompt:      SystemPrompt,
		DesignInstruction: DesignInstruction,
	}
}

// LoadProfile reads a .yaml/.yml or .toml profile. Fields left empty keep
// their built-in value. An empty path returns the defaults.
func LoadProfile(path string) (Profile, error) {
	profile := DefaultProfile()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return profile, fmt.Errorf("read prompt profile: %w", err)
	}

	var override Profile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &override)
	case ".toml":
		err = toml.Unmarshal(data, &override)
	default:
		return profile, fmt.Errorf("unsupported prompt profile format %q", filepath.Ext(path))
	}
	if err != nil {
		return profile, fmt.Errorf("parse prompt profile %s: %w", path, err)
	}

	if strings.TrimSpace(override.SystemPrompt) != "" {
		profile.SystemPrompt = override.SystemPrompt
	}
	if strings.TrimSpace(override.DesignInstruction) != "" {
		profile.DesignInstruction = override.DesignInstruction
	}
	return profile, nil
}
