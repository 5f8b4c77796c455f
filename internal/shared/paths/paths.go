package paths

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Defaults for a React project with a tsconfig "@/*" -> "./src/*" alias.
const (
	SourcePrefix = "src/"
	AliasPrefix  = "@/"
	ManifestName = "package.json"
)

// DefaultPatterns is the default internal component namespace.
var DefaultPatterns = []string{"src/components/ui/**"}

// SourceExtensions are the module extensions tried when an import omits one.
var SourceExtensions = []string{".tsx", ".ts", ".jsx", ".js"}

// Layout describes where internal components live and how they are imported.
type Layout struct {
	Patterns     []string
	SourcePrefix string
	AliasPrefix  string
	ManifestName string
}

// DefaultLayout returns the conventional layout.
func DefaultLayout() Layout {
	return Layout{
		Patterns:     append([]string(nil), DefaultPatterns...),
		SourcePrefix: SourcePrefix,
		AliasPrefix:  AliasPrefix,
		ManifestName: ManifestName,
	}
}

// Namespace answers membership and import-resolution questions for a layout.
type Namespace struct {
	layout Layout
}

// NewNamespace validates the glob patterns and returns a Namespace.
func NewNamespace(layout Layout) (*Namespace, error) {
	if len(layout.Patterns) == 0 {
		return nil, fmt.Errorf("internal namespace requires at least one pattern")
	}
	for _, p := range layout.Patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid namespace pattern %q", p)
		}
	}
	if layout.ManifestName == "" {
		layout.ManifestName = ManifestName
	}
	return &Namespace{layout: layout}, nil
}

// MustNamespace is NewNamespace for static layouts.
func MustNamespace(layout Layout) *Namespace {
	ns, err := NewNamespace(layout)
	if err != nil {
		panic(err)
	}
	return ns
}

// Layout returns a copy of the configured layout.
func (n *Namespace) Layout() Layout {
	return n.layout
}

// Contains reports whether p (a repository-relative path, with or without
// extension) lies inside the internal component namespace.
func (n *Namespace) Contains(p string) bool {
	p = Clean(p)
	for _, pattern := range n.layout.Patterns {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
	}
	return false
}

// IsManifest reports whether p names the dependency manifest at any depth.
func (n *Namespace) IsManifest(p string) bool {
	return path.Base(Clean(p)) == n.layout.ManifestName
}

// ToAlias rewrites a source-rooted path to its alias form. Other paths are
// returned unchanged.
func (n *Namespace) ToAlias(p string) string {
	if n.layout.SourcePrefix == "" {
		return p
	}
	if rest, ok := strings.CutPrefix(p, n.layout.SourcePrefix); ok {
		return n.layout.AliasPrefix + rest
	}
	return p
}

// Resolve maps an import identifier used inside importer to a
// repository-relative module path. Bare package imports resolve to false.
func (n *Namespace) Resolve(importID, importer string) (string, bool) {
	switch {
	case n.layout.AliasPrefix != "" && strings.HasPrefix(importID, n.layout.AliasPrefix):
		return Clean(n.layout.SourcePrefix + strings.TrimPrefix(importID, n.layout.AliasPrefix)), true
	case strings.HasPrefix(importID, "./") || strings.HasPrefix(importID, "../"):
		if importer == "" {
			return "", false
		}
		joined := path.Join(path.Dir(Clean(importer)), importID)
		if strings.HasPrefix(joined, "..") {
			return "", false
		}
		return joined, true
	case n.layout.SourcePrefix != "" && strings.HasPrefix(importID, n.layout.SourcePrefix):
		return Clean(importID), true
	}
	return "", false
}

// Clean normalizes separators and strips leading "./" and "/".
func Clean(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "./")
	return strings.TrimPrefix(p, "/")
}

// ModuleKey identifies a module independent of extension and index files,
// so "a/B.tsx", "a/B" and "a/B/index.ts" compare as "a/B".
func ModuleKey(p string) string {
	p = Clean(p)
	for _, ext := range SourceExtensions {
		if strings.HasSuffix(p, ext) {
			p = strings.TrimSuffix(p, ext)
			break
		}
	}
	return strings.TrimSuffix(p, "/index")
}

// Candidates lists concrete file paths a module path may refer to.
func Candidates(p string) []string {
	p = Clean(p)
	if HasSourceExtension(p) {
		return []string{p}
	}
	out := make([]string, 0, len(SourceExtensions)*2)
	for _, ext := range SourceExtensions {
		out = append(out, p+ext)
	}
	for _, ext := range SourceExtensions {
		out = append(out, p+"/index"+ext)
	}
	return out
}

// HasSourceExtension reports whether p ends in a known module extension.
func HasSourceExtension(p string) bool {
	for _, ext := range SourceExtensions {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}
