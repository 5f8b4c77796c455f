// Package source lists the files of a repository to ingest, either from
// the GitHub contents API or from a local checkout.
package source

import (
	"context"
	"path"
	"strings"

	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
)

// Source yields every ingestible file of a repository with paths relative
// to the repository root and forward slashes.
type Source interface {
	Name() string
	List(ctx context.Context) ([]types.FileNode, error)
}

// skippedDirs are never descended into
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"dist":         true,
	"build":        true,
	".next":        true,
	"coverage":     true,
}

// ingestibleExts are the only files read during ingestion
var ingestibleExts = map[string]bool{
	".tsx":  true,
	".ts":   true,
	".jsx":  true,
	".js":   true,
	".css":  true,
	".json": true,
}

// SkipDir reports whether a directory name is excluded from traversal
func SkipDir(name string) bool {
	return skippedDirs[name]
}

// Ingestible reports whether a repository path is worth fetching. Of the
// JSON files only package.json is kept.
func Ingestible(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	if !ingestibleExts[ext] {
		return false
	}
	if ext == ".json" {
		return path.Base(p) == "package.json"
	}
	return !strings.HasSuffix(p, ".d.ts")
}
