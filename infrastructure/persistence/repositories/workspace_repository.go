package repositories

import (
	"context"
	"fmt"

	"github.com/BOHARRY/courtDataAPI-sub002/application/ports"
	"github.com/BOHARRY/courtDataAPI-sub002/domain/workspace"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/persistence"
	"go.uber.org/zap"
)

// WorkspaceRepository stores workspaces under users/{uid}/workspaces.
type WorkspaceRepository struct {
	store  persistence.DocumentStore
	logger *zap.Logger
}

// Compile-time interface check
var _ ports.WorkspaceRepository = (*WorkspaceRepository)(nil)

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(store persistence.DocumentStore, logger *zap.Logger) *WorkspaceRepository {
	return &WorkspaceRepository{store: store, logger: logger}
}

// Save writes the whole workspace document.
func (r *WorkspaceRepository) Save(ctx context.Context, userID string, w *workspace.Workspace) error {
	doc, err := persistence.ToDocument(w)
	if err != nil {
		return fmt.Errorf("encode workspace %s: %w", w.ID, err)
	}
	return r.store.Set(ctx, workspacePath(userID, w.ID), doc)
}

// GetByID reads one workspace.
func (r *WorkspaceRepository) GetByID(ctx context.Context, userID, id string) (*workspace.Workspace, error) {
	doc, err := r.store.Get(ctx, workspacePath(userID, id))
	if err != nil {
		return nil, err
	}
	return r.decode(id, doc)
}

func (r *WorkspaceRepository) decode(id string, doc persistence.Document) (*workspace.Workspace, error) {
	normalizeTimestamps(doc, "createdAt", "updatedAt", "lastAccessedAt")

	var w workspace.Workspace
	if err := persistence.FromDocument(doc, &w); err != nil {
		return nil, fmt.Errorf("decode workspace %s: %w", id, err)
	}
	w.ID = id
	if w.Tabs == nil {
		w.Tabs = []workspace.Tab{}
	}
	return &w, nil
}

// Update applies field updates to an existing workspace.
func (r *WorkspaceRepository) Update(ctx context.Context, userID, id string, fields map[string]interface{}) error {
	return r.store.Update(ctx, workspacePath(userID, id), fields)
}

// Delete removes the workspace document. Canvas fragments below it are left in place.
func (r *WorkspaceRepository) Delete(ctx context.Context, userID, id string) error {
	return r.store.Delete(ctx, workspacePath(userID, id))
}

// List returns one page of the user's workspaces. Documents that fail to
// decode are skipped and logged.
func (r *WorkspaceRepository) List(ctx context.Context, userID string, q ports.ListQuery) ([]*workspace.Workspace, error) {
	direction := persistence.Ascending
	if q.Descending {
		direction = persistence.Descending
	}

	docs, err := r.store.Query(ctx, workspacesCollection(userID), persistence.Query{
		OrderBy:   q.OrderBy,
		Direction: direction,
		Limit:     q.Limit,
	})
	if err != nil {
		return nil, err
	}

	out := make([]*workspace.Workspace, 0, len(docs))
	for _, doc := range docs {
		id, _ := doc["id"].(string)
		w, err := r.decode(id, doc)
		if err != nil {
			r.logger.Warn("skipping undecodable workspace",
				zap.String("userID", userID),
				zap.String("workspaceID", id),
				zap.Error(err),
			)
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

// GetActivePointer reads users/{uid}/settings/workspace.
func (r *WorkspaceRepository) GetActivePointer(ctx context.Context, userID string) (*workspace.ActivePointer, error) {
	doc, err := r.store.Get(ctx, activePointerPath(userID))
	if err != nil {
		return nil, err
	}
	normalizeTimestamps(doc, "updatedAt")

	var p workspace.ActivePointer
	if err := persistence.FromDocument(doc, &p); err != nil {
		return nil, fmt.Errorf("decode active pointer: %w", err)
	}
	return &p, nil
}

// SetActivePointer merge-upserts the pointer.
func (r *WorkspaceRepository) SetActivePointer(ctx context.Context, userID string, p workspace.ActivePointer) error {
	return r.store.Set(ctx, activePointerPath(userID), persistence.Document{
		"currentWorkspaceId": p.CurrentWorkspaceID,
		"updatedAt":          p.UpdatedAt,
	}, persistence.Merge())
}

// ClearActivePointer unsets the current workspace.
func (r *WorkspaceRepository) ClearActivePointer(ctx context.Context, userID string, at int64) error {
	return r.store.Set(ctx, activePointerPath(userID), persistence.Document{
		"currentWorkspaceId": nil,
		"updatedAt":          at,
	}, persistence.Merge())
}
