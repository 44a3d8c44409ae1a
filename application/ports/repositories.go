package ports

import (
	"context"

	"github.com/BOHARRY/courtDataAPI-sub002/domain/canvas"
	"github.com/BOHARRY/courtDataAPI-sub002/domain/workspace"
)

// ListQuery selects a page of a user's workspaces.
type ListQuery struct {
	OrderBy    string
	Descending bool
	Limit      int
}

// WorkspaceRepository persists workspaces and the per-user active pointer.
// This is a port in hexagonal architecture; errors are the store's own.
type WorkspaceRepository interface {
	// Save writes the whole workspace document.
	Save(ctx context.Context, userID string, w *workspace.Workspace) error

	// GetByID returns the workspace with timestamps normalized.
	GetByID(ctx context.Context, userID, id string) (*workspace.Workspace, error)

	// Update applies field updates to an existing workspace. Keys may be dotted.
	Update(ctx context.Context, userID, id string, fields map[string]interface{}) error

	Delete(ctx context.Context, userID, id string) error

	List(ctx context.Context, userID string, q ListQuery) ([]*workspace.Workspace, error)

	// GetActivePointer returns the pointer, or the store's not-found error when unset.
	GetActivePointer(ctx context.Context, userID string) (*workspace.ActivePointer, error)

	// SetActivePointer merge-upserts the pointer document.
	SetActivePointer(ctx context.Context, userID string, p workspace.ActivePointer) error

	// ClearActivePointer empties the pointer.
	ClearActivePointer(ctx context.Context, userID string, at int64) error
}

// CanvasRepository persists canvas manifests, nodes and edges of one workspace,
// each as its own document.
type CanvasRepository interface {
	GetManifest(ctx context.Context, userID, workspaceID, canvasID string) (*canvas.Manifest, error)
	SaveManifest(ctx context.Context, userID, workspaceID string, m *canvas.Manifest) error
	UpdateManifest(ctx context.Context, userID, workspaceID, canvasID string, fields map[string]interface{}) error

	GetNode(ctx context.Context, userID, workspaceID, nodeID string) (*canvas.Node, error)
	SaveNode(ctx context.Context, userID, workspaceID string, n *canvas.Node) error
	// CreateNode writes the node only if no node with its ID exists.
	CreateNode(ctx context.Context, userID, workspaceID string, n *canvas.Node) error
	UpdateNode(ctx context.Context, userID, workspaceID, nodeID string, fields map[string]interface{}) error

	GetEdge(ctx context.Context, userID, workspaceID, edgeID string) (*canvas.Edge, error)
	SaveEdge(ctx context.Context, userID, workspaceID string, e *canvas.Edge) error
}
