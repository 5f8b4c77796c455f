package types

import "path"

// ComponentDescriptor identifies one internal UI component owned by a user.
type ComponentDescriptor struct {
	Path         string   `json:"path"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	UseCase      string   `json:"useCase,omitempty"`
	InputProps   string   `json:"inputProps,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	CodeSamples  []string `json:"codeSamples,omitempty"`
	Code         string   `json:"code,omitempty"`
}

// FileName returns the base name of the component path.
func (c ComponentDescriptor) FileName() string {
	return path.Base(c.Path)
}

// FileNode is a snapshot of one file in the caller's project.
type FileNode struct {
	FileName    string `json:"fileName"`
	FilePath    string `json:"filePath"`
	FileContent string `json:"fileContent"`
}

// DesignFile is a stylesheet or token file that defines the design system.
type DesignFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Manifest holds the approved dependency set parsed from package.json.
type Manifest struct {
	Path            string            `json:"path"`
	Name            string            `json:"name,omitempty"`
	Version         string            `json:"version,omitempty"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`
	Scripts         map[string]string `json:"scripts,omitempty"`
	Content         string            `json:"content,omitempty"`
}

// Empty reports whether the manifest declares no dependencies at all.
func (m *Manifest) Empty() bool {
	return m == nil || (len(m.Dependencies) == 0 && len(m.DevDependencies) == 0)
}
