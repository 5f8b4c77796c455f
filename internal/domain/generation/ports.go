package generation

import (
	"context"

	"github.com/GriffinCanCode/ZenCode/backend/internal/domain/reconcile"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/types"
)

// VectorIndex finds component paths similar to a query
type VectorIndex interface {
	QueryIDs(ctx context.Context, namespace, text string, topK int) ([]string, error)
}

// ComponentStore reads a user's components, design tokens and manifest
type ComponentStore interface {
	reconcile.ComponentFetcher
	FetchManifestAndDesignTokens(ctx context.Context, userID string) (*types.Manifest, []types.DesignFile, error)
}

// Completer produces a completion for a message list
type Completer interface {
	Complete(ctx context.Context, messages []types.ChatMessage) (string, error)
}

// Sessions resolves and persists conversation state
type Sessions interface {
	Resolve(ctx context.Context, sessionID, userID string) (string, error)
	Update(ctx context.Context, sessionID string, messages []types.ChatMessage, codebase []types.FileNode) error
}
