package reconcile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/paths"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
)

// lineAnalyzer treats every line starting with "import " as one import of the
// quoted module, and fails on content containing "!!".
type lineAnalyzer struct{}

func (lineAnalyzer) Parse(_ context.Context, code string) ([]string, error) {
	if strings.Contains(code, "!!") {
		return nil, errors.New("unparseable")
	}
	var out []string
	for _, line := range strings.Split(code, "\n") {
		if !strings.HasPrefix(line, "import ") {
			continue
		}
		start := strings.IndexAny(line, `'"`)
		end := strings.LastIndexAny(line, `'"`)
		if start >= 0 && end > start {
			out = append(out, line[start+1:end])
		}
	}
	return out, nil
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) FetchByPaths(ctx context.Context, userID string, p []string) ([]types.ComponentDescriptor, error) {
	args := m.Called(ctx, userID, p)
	if v := args.Get(0); v != nil {
		return v.([]types.ComponentDescriptor), args.Error(1)
	}
	return nil, args.Error(1)
}

func newReconciler(store ComponentFetcher) *Reconciler {
	return New(paths.MustNamespace(paths.DefaultLayout()), lineAnalyzer{}, store, nil)
}

func appStep(id int, content string) types.EditStep {
	return types.EditStep{ID: id, Title: "App", Type: types.StepCreateFile, Path: "src/App.tsx", Content: content}
}

func TestReconcileBackfillsMissing(t *testing.T) {
	store := &mockStore{}
	store.On("FetchByPaths", mock.Anything, "u1", mock.MatchedBy(func(p []string) bool {
		return assert.ObjectsAreEqual(paths.Candidates("src/components/ui/Button"), p)
	})).Return([]types.ComponentDescriptor{
		{Path: "src/components/ui/Button.tsx", Code: "export const Button = 1"},
	}, nil)

	steps := []types.EditStep{
		appStep(1, "import { Button } from '@/components/ui/Button'\nimport React from 'react'"),
		{ID: 4, Title: "Note", Type: types.StepTextDisplay, Content: "import x from '@/components/ui/Card'"},
	}

	res, err := newReconciler(store).Reconcile(context.Background(), steps, nil, nil, "u1")
	require.NoError(t, err)
	require.Len(t, res.Steps, 1)

	got := res.Steps[0]
	assert.Equal(t, 5, got.ID)
	assert.Equal(t, "Creating file Button.tsx", got.Title)
	assert.Equal(t, types.StepCreateFile, got.Type)
	assert.Equal(t, "src/components/ui/Button.tsx", got.Path)
	assert.Equal(t, "export const Button = 1", got.Content)
	store.AssertExpectations(t)
}

func TestReconcileSkipsKnownAndDedupes(t *testing.T) {
	store := &mockStore{}
	store.On("FetchByPaths", mock.Anything, "u1", mock.Anything).Return([]types.ComponentDescriptor{
		{Path: "src/components/ui/Card.tsx", Code: "card"},
		{Path: "src/components/ui/Card/index.ts", Code: "dup"},
	}, nil)

	steps := []types.EditStep{
		appStep(1, "import B from '@/components/ui/Button'\nimport C from '@/components/ui/Card'"),
		{ID: 2, Type: types.StepEditFile, Path: "src/components/ui/Header.tsx", Content: "import C from './Card'"},
	}
	known := []string{"src/components/ui/Button.tsx"}

	res, err := newReconciler(store).Reconcile(context.Background(), steps, known, nil, "u1")
	require.NoError(t, err)
	require.Len(t, res.Steps, 1)
	assert.Equal(t, "src/components/ui/Card.tsx", res.Steps[0].Path)

	fetched := store.Calls[0].Arguments.Get(2).([]string)
	assert.NotContains(t, fetched, "src/components/ui/Button.tsx")
	assert.Equal(t, paths.Candidates("src/components/ui/Card"), fetched)
}

func TestReconcileIgnoresComponentsCreatedBySteps(t *testing.T) {
	store := &mockStore{}

	steps := []types.EditStep{
		appStep(1, "import B from '@/components/ui/Badge'"),
		{ID: 2, Type: types.StepCreateFile, Path: "src/components/ui/Badge.tsx", Content: "export default 1"},
	}
	res, err := newReconciler(store).Reconcile(context.Background(), steps, nil, nil, "u1")
	require.NoError(t, err)
	assert.Empty(t, res.Steps)
	store.AssertNotCalled(t, "FetchByPaths", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcileManifestStep(t *testing.T) {
	store := &mockStore{}
	manifest := &types.FileNode{FileName: "package.json", FilePath: "package.json", FileContent: "{}"}

	steps := []types.EditStep{
		{ID: 1, Type: types.StepEditFile, Path: "package.json", Content: "import x from '@/components/ui/Nope'"},
	}
	res, err := newReconciler(store).Reconcile(context.Background(), steps, nil, manifest, "u1")
	require.NoError(t, err)
	assert.True(t, res.ManifestUpdated)
	assert.Equal(t, steps[0].Content, manifest.FileContent)
	assert.Empty(t, res.Steps)
}

func TestReconcileToleratesAnalyzerFailure(t *testing.T) {
	store := &mockStore{}
	store.On("FetchByPaths", mock.Anything, "u1", mock.Anything).Return([]types.ComponentDescriptor{
		{Path: "src/components/ui/Tag.tsx", Code: "tag"},
	}, nil)

	steps := []types.EditStep{
		appStep(1, "!! import A from '@/components/ui/Alert'"),
		{ID: 2, Type: types.StepCreateFile, Path: "src/Page.tsx", Content: "import T from '@/components/ui/Tag'"},
	}
	res, err := newReconciler(store).Reconcile(context.Background(), steps, nil, nil, "u1")
	require.NoError(t, err)
	require.Len(t, res.Steps, 1)
	assert.Equal(t, 3, res.Steps[0].ID)
}

func TestReconcileStoreFailure(t *testing.T) {
	store := &mockStore{}
	store.On("FetchByPaths", mock.Anything, "u1", mock.Anything).Return(nil, errors.New("db down"))

	res, err := newReconciler(store).Reconcile(context.Background(),
		[]types.EditStep{appStep(1, "import A from '@/components/ui/Alert'")}, nil, nil, "u1")
	assert.Error(t, err)
	assert.Empty(t, res.Steps)
}

func TestReconcileIdempotent(t *testing.T) {
	store := &mockStore{}
	store.On("FetchByPaths", mock.Anything, "u1", mock.Anything).Return([]types.ComponentDescriptor{
		{Path: "src/components/ui/Button.tsx", Code: "b"},
	}, nil).Once()

	steps := []types.EditStep{appStep(1, "import B from '@/components/ui/Button'")}
	r := newReconciler(store)

	first, err := r.Reconcile(context.Background(), steps, nil, nil, "u1")
	require.NoError(t, err)
	require.Len(t, first.Steps, 1)

	// Feeding the backfilled steps back in must not add anything
	second, err := r.Reconcile(context.Background(), append(steps, first.Steps...), nil, nil, "u1")
	require.NoError(t, err)
	assert.Empty(t, second.Steps)
	store.AssertNumberOfCalls(t, "FetchByPaths", 1)
}
