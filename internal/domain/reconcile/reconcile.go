// Package reconcile backfills internal components that generated code
// imports but the caller's workspace does not contain yet.
package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/paths"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
)

// Analyzer extracts import identifiers from source code
type Analyzer interface {
	Parse(ctx context.Context, code string) ([]string, error)
}

// ComponentFetcher loads component records by path for one user
type ComponentFetcher interface {
	FetchByPaths(ctx context.Context, userID string, paths []string) ([]types.ComponentDescriptor, error)
}

// Result is the outcome of one reconciliation pass
type Result struct {
	Steps           []types.EditStep
	ManifestUpdated bool
}

// Reconciler finds missing internal imports and turns them into steps
type Reconciler struct {
	ns       *paths.Namespace
	analyzer Analyzer
	store    ComponentFetcher
	logger   *zap.Logger
}

// New creates a reconciler
func New(ns *paths.Namespace, analyzer Analyzer, store ComponentFetcher, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		ns:       ns,
		analyzer: analyzer,
		store:    store,
		logger:   logger,
	}
}

// Reconcile returns CreateFile steps for every internal component imported
// by steps that is neither in known nor produced by steps itself. A step
// that writes the manifest updates manifest in place and is not scanned.
// The returned steps continue numbering after the last id in steps.
func (r *Reconciler) Reconcile(ctx context.Context, steps []types.EditStep, known []string, manifest *types.FileNode, userID string) (Result, error) {
	var result Result

	present := make(map[string]struct{}, len(known)+len(steps))
	for _, p := range known {
		present[paths.ModuleKey(p)] = struct{}{}
	}
	for _, s := range steps {
		if s.Path != "" && s.Type != types.StepDeleteFile {
			present[paths.ModuleKey(s.Path)] = struct{}{}
		}
	}

	var missing []string
	seen := make(map[string]struct{})

	for _, step := range steps {
		if !scannable(step) {
			continue
		}

		if manifest != nil && paths.Clean(step.Path) == paths.Clean(manifest.FilePath) {
			manifest.FileContent = step.Content
			result.ManifestUpdated = true
			continue
		}

		imports, err := r.analyzer.Parse(ctx, step.Content)
		if err != nil {
			r.logger.Debug("Skipping step imports",
				zap.String("path", step.Path),
				zap.Error(err))
			continue
		}

		for _, imp := range imports {
			resolved, ok := r.ns.Resolve(imp, step.Path)
			if !ok || !r.ns.Contains(resolved) {
				continue
			}
			key := paths.ModuleKey(resolved)
			if _, ok := present[key]; ok {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			missing = append(missing, resolved)
		}
	}

	if len(missing) == 0 {
		return result, nil
	}

	var candidates []string
	for _, m := range missing {
		candidates = append(candidates, paths.Candidates(m)...)
	}

	records, err := r.store.FetchByPaths(ctx, userID, candidates)
	if err != nil {
		return result, fmt.Errorf("fetch missing components: %w", err)
	}

	next := types.LastStepID(steps) + 1
	added := make(map[string]struct{}, len(records))
	for _, rec := range records {
		key := paths.ModuleKey(rec.Path)
		if _, ok := added[key]; ok {
			continue
		}
		added[key] = struct{}{}

		result.Steps = append(result.Steps, types.EditStep{
			ID:      next,
			Title:   "Creating file " + rec.FileName(),
			Type:    types.StepCreateFile,
			Content: rec.Code,
			Path:    rec.Path,
		})
		next++
	}

	if len(added) < len(missing) {
		r.logger.Debug("Some imported components are not indexed",
			zap.Int("missing", len(missing)),
			zap.Int("found", len(added)))
	}
	return result, nil
}

func scannable(s types.EditStep) bool {
	switch s.Type {
	case types.StepCreateFile, types.StepEditFile:
		return s.Content != "" && s.Path != ""
	}
	return false
}
