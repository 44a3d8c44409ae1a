package repositories

import (
	"context"
	"fmt"

	"github.com/BOHARRY/courtDataAPI-sub002/application/ports"
	"github.com/BOHARRY/courtDataAPI-sub002/domain/canvas"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/persistence"
	"go.uber.org/zap"
)

// CanvasRepository stores the manifest and the per-element node and edge
// documents of a workspace's canvases.
type CanvasRepository struct {
	store  persistence.DocumentStore
	logger *zap.Logger
}

// Compile-time interface check
var _ ports.CanvasRepository = (*CanvasRepository)(nil)

// NewCanvasRepository creates a new CanvasRepository
func NewCanvasRepository(store persistence.DocumentStore, logger *zap.Logger) *CanvasRepository {
	return &CanvasRepository{store: store, logger: logger}
}

// GetManifest reads one canvas manifest.
func (r *CanvasRepository) GetManifest(ctx context.Context, userID, workspaceID, canvasID string) (*canvas.Manifest, error) {
	doc, err := r.store.Get(ctx, manifestPath(userID, workspaceID, canvasID))
	if err != nil {
		return nil, err
	}
	normalizeTimestamps(doc, "updatedAt")

	var m canvas.Manifest
	if err := persistence.FromDocument(doc, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", canvasID, err)
	}
	m.CanvasID = canvasID
	if m.NodeIDs == nil {
		m.NodeIDs = []string{}
	}
	if m.EdgeIDs == nil {
		m.EdgeIDs = []string{}
	}
	return &m, nil
}

// SaveManifest replaces the manifest document in a single write.
func (r *CanvasRepository) SaveManifest(ctx context.Context, userID, workspaceID string, m *canvas.Manifest) error {
	doc, err := persistence.ToDocument(m)
	if err != nil {
		return fmt.Errorf("encode manifest %s: %w", m.CanvasID, err)
	}
	return r.store.Set(ctx, manifestPath(userID, workspaceID, m.CanvasID), doc)
}

// UpdateManifest applies field updates to an existing manifest.
func (r *CanvasRepository) UpdateManifest(ctx context.Context, userID, workspaceID, canvasID string, fields map[string]interface{}) error {
	return r.store.Update(ctx, manifestPath(userID, workspaceID, canvasID), fields)
}

// GetNode reads one node.
func (r *CanvasRepository) GetNode(ctx context.Context, userID, workspaceID, nodeID string) (*canvas.Node, error) {
	doc, err := r.store.Get(ctx, nodePath(userID, workspaceID, nodeID))
	if err != nil {
		return nil, err
	}
	normalizeTimestamps(doc, "createdAt", "updatedAt")

	var n canvas.Node
	if err := persistence.FromDocument(doc, &n); err != nil {
		return nil, fmt.Errorf("decode node %s: %w", nodeID, err)
	}
	n.ID = nodeID
	if n.Data == nil {
		n.Data = map[string]interface{}{}
	}
	return &n, nil
}

// SaveNode replaces the node document.
func (r *CanvasRepository) SaveNode(ctx context.Context, userID, workspaceID string, n *canvas.Node) error {
	doc, err := persistence.ToDocument(n)
	if err != nil {
		return fmt.Errorf("encode node %s: %w", n.ID, err)
	}
	return r.store.Set(ctx, nodePath(userID, workspaceID, n.ID), doc)
}

// CreateNode writes the node if absent, else returns persistence.ErrAlreadyExists.
func (r *CanvasRepository) CreateNode(ctx context.Context, userID, workspaceID string, n *canvas.Node) error {
	doc, err := persistence.ToDocument(n)
	if err != nil {
		return fmt.Errorf("encode node %s: %w", n.ID, err)
	}
	return r.store.Create(ctx, nodePath(userID, workspaceID, n.ID), doc)
}

// UpdateNode applies field updates to an existing node.
func (r *CanvasRepository) UpdateNode(ctx context.Context, userID, workspaceID, nodeID string, fields map[string]interface{}) error {
	return r.store.Update(ctx, nodePath(userID, workspaceID, nodeID), fields)
}

// GetEdge reads one edge.
func (r *CanvasRepository) GetEdge(ctx context.Context, userID, workspaceID, edgeID string) (*canvas.Edge, error) {
	doc, err := r.store.Get(ctx, edgePath(userID, workspaceID, edgeID))
	if err != nil {
		return nil, err
	}
	normalizeTimestamps(doc, "createdAt", "updatedAt")

	var e canvas.Edge
	if err := persistence.FromDocument(doc, &e); err != nil {
		return nil, fmt.Errorf("decode edge %s: %w", edgeID, err)
	}
	e.ID = edgeID
	if e.Data == nil {
		e.Data = map[string]interface{}{}
	}
	return &e, nil
}

// SaveEdge replaces the edge document.
func (r *CanvasRepository) SaveEdge(ctx context.Context, userID, workspaceID string, e *canvas.Edge) error {
	doc, err := persistence.ToDocument(e)
	if err != nil {
		return fmt.Errorf("encode edge %s: %w", e.ID, err)
	}
	return r.store.Set(ctx, edgePath(userID, workspaceID, e.ID), doc)
}
