package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/BOHARRY/courtDataAPI-sub002/application/ports"
	"github.com/BOHARRY/courtDataAPI-sub002/domain/canvas"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/config"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/observability"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/persistence"
	apperrors "github.com/BOHARRY/courtDataAPI-sub002/pkg/errors"
	"github.com/BOHARRY/courtDataAPI-sub002/pkg/utils"
)

// CanvasService reads and writes canvas manifests and the per-element node
// and edge documents. It never deletes elements.
type CanvasService struct {
	repo        ports.CanvasRepository
	metrics     *observability.Collector
	concurrency config.ConcurrencyConfig
	clock       func() time.Time
	logger      *zap.Logger
}

// NewCanvasService creates a new canvas service
func NewCanvasService(
	repo ports.CanvasRepository,
	metrics *observability.Collector,
	concurrency config.ConcurrencyConfig,
	logger *zap.Logger,
) *CanvasService {
	return &CanvasService{
		repo:        repo,
		metrics:     metrics,
		concurrency: concurrency,
		clock:       time.Now,
		logger:      logger,
	}
}

// WithClock replaces the time source.
func (s *CanvasService) WithClock(clock func() time.Time) *CanvasService {
	s.clock = clock
	return s
}

func (s *CanvasService) now() int64 {
	return s.clock().UnixMilli()
}

// GetManifest returns the stored manifest, or the empty default for a canvas
// that was never saved.
func (s *CanvasService) GetManifest(ctx context.Context, userID, workspaceID, canvasID string) (*canvas.Manifest, error) {
	m, err := s.repo.GetManifest(ctx, userID, workspaceID, canvasID)
	if errors.Is(err, persistence.ErrNotFound) {
		return canvas.EmptyManifest(canvasID), nil
	}
	if err != nil {
		return nil, storeError(err, "get manifest", "manifest")
	}
	return m, nil
}

// SaveManifest replaces membership and viewport in one write.
func (s *CanvasService) SaveManifest(ctx context.Context, userID, workspaceID, canvasID string, m canvas.Manifest) (*canvas.Manifest, error) {
	m.CanvasID = canvasID
	m.Version = canvas.ManifestVersion
	m.UpdatedAt = s.now()
	if m.NodeIDs == nil {
		m.NodeIDs = []string{}
	}
	if m.EdgeIDs == nil {
		m.EdgeIDs = []string{}
	}
	if m.Viewport.Zoom <= 0 {
		m.Viewport.Zoom = canvas.DefaultViewport().Zoom
	}

	if err := s.repo.SaveManifest(ctx, userID, workspaceID, &m); err != nil {
		return nil, storeError(err, "save manifest", "manifest")
	}

	s.logger.Debug("Canvas manifest saved",
		zap.String("workspaceID", workspaceID),
		zap.String("canvasID", canvasID),
		zap.Int("nodes", len(m.NodeIDs)),
		zap.Int("edges", len(m.EdgeIDs)),
	)
	return &m, nil
}

// UpdateViewport changes only the viewport of an existing manifest.
func (s *CanvasService) UpdateViewport(ctx context.Context, userID, workspaceID, canvasID string, v canvas.Viewport) (*canvas.Manifest, error) {
	if v.Zoom <= 0 {
		return nil, apperrors.NewValidationError("zoom must be greater than 0")
	}
	err := s.repo.UpdateManifest(ctx, userID, workspaceID, canvasID, map[string]interface{}{
		"viewport":  map[string]interface{}{"x": v.X, "y": v.Y, "zoom": v.Zoom},
		"updatedAt": s.now(),
	})
	if err != nil {
		return nil, storeError(err, "update viewport", "manifest")
	}

	m, err := s.repo.GetManifest(ctx, userID, workspaceID, canvasID)
	if err != nil {
		return nil, storeError(err, "get manifest", "manifest")
	}
	return m, nil
}

// GetNode returns one node.
func (s *CanvasService) GetNode(ctx context.Context, userID, workspaceID, nodeID string) (*canvas.Node, error) {
	n, err := s.repo.GetNode(ctx, userID, workspaceID, nodeID)
	if err != nil {
		return nil, storeError(err, "get node", "node")
	}
	return n, nil
}

// SaveNode writes a node. An empty type is inferred from the ID. Once a node
// exists its type and createdAt are kept whatever the caller sends.
func (s *CanvasService) SaveNode(ctx context.Context, userID, workspaceID string, n canvas.Node) (*canvas.Node, error) {
	saved, err := s.saveNode(ctx, userID, workspaceID, n)
	if err != nil {
		return nil, storeError(err, "save node", "node")
	}
	return saved, nil
}

func (s *CanvasService) saveNode(ctx context.Context, userID, workspaceID string, n canvas.Node) (*canvas.Node, error) {
	if err := utils.ValidateStruct(n); err != nil {
		return nil, err
	}
	if n.Type == "" {
		n.Type = canvas.InferKind(n.ID)
	}
	if n.Data == nil {
		n.Data = map[string]interface{}{}
	}
	now := s.now()
	n.UpdatedAt = now

	// Two rounds at most: a concurrent first save can win the create.
	for round := 0; round < 2; round++ {
		existing, err := s.repo.GetNode(ctx, userID, workspaceID, n.ID)
		switch {
		case err == nil:
			if existing.Type != "" {
				n.Type = existing.Type
			}
			n.CreatedAt = existing.CreatedAt
			if n.CreatedAt == 0 {
				n.CreatedAt = now
			}
			if err := s.repo.SaveNode(ctx, userID, workspaceID, &n); err != nil {
				return nil, err
			}
			return &n, nil

		case errors.Is(err, persistence.ErrNotFound):
			n.CreatedAt = now
			err := s.repo.CreateNode(ctx, userID, workspaceID, &n)
			if errors.Is(err, persistence.ErrAlreadyExists) {
				continue
			}
			if err != nil {
				return nil, err
			}
			return &n, nil

		default:
			return nil, err
		}
	}
	return nil, apperrors.NewConflictError(fmt.Sprintf("node %s changed concurrently", n.ID)).
		WithCode(codeConcurrentWrite)
}

// UpdateNodePosition changes only the node's position.
func (s *CanvasService) UpdateNodePosition(ctx context.Context, userID, workspaceID, nodeID string, p canvas.Position) error {
	err := s.repo.UpdateNode(ctx, userID, workspaceID, nodeID, map[string]interface{}{
		"position":  map[string]interface{}{"x": p.X, "y": p.Y},
		"updatedAt": s.now(),
	})
	return storeError(err, "update node position", "node")
}

// UpdateNodeContent changes only the node's data.
func (s *CanvasService) UpdateNodeContent(ctx context.Context, userID, workspaceID, nodeID string, data map[string]interface{}) error {
	if data == nil {
		data = map[string]interface{}{}
	}
	err := s.repo.UpdateNode(ctx, userID, workspaceID, nodeID, map[string]interface{}{
		"data":      data,
		"updatedAt": s.now(),
	})
	return storeError(err, "update node content", "node")
}

// GetEdge returns one edge.
func (s *CanvasService) GetEdge(ctx context.Context, userID, workspaceID, edgeID string) (*canvas.Edge, error) {
	e, err := s.repo.GetEdge(ctx, userID, workspaceID, edgeID)
	if err != nil {
		return nil, storeError(err, "get edge", "edge")
	}
	return e, nil
}

// SaveEdge writes an edge. Its endpoints are not checked.
func (s *CanvasService) SaveEdge(ctx context.Context, userID, workspaceID string, e canvas.Edge) (*canvas.Edge, error) {
	saved, err := s.saveEdge(ctx, userID, workspaceID, e)
	if err != nil {
		return nil, storeError(err, "save edge", "edge")
	}
	return saved, nil
}

func (s *CanvasService) saveEdge(ctx context.Context, userID, workspaceID string, e canvas.Edge) (*canvas.Edge, error) {
	if err := utils.ValidateStruct(e); err != nil {
		return nil, err
	}
	if e.Data == nil {
		e.Data = map[string]interface{}{}
	}
	now := s.now()
	e.UpdatedAt = now
	e.CreatedAt = now

	existing, err := s.repo.GetEdge(ctx, userID, workspaceID, e.ID)
	switch {
	case err == nil && existing.CreatedAt != 0:
		e.CreatedAt = existing.CreatedAt
	case err != nil && !errors.Is(err, persistence.ErrNotFound):
		return nil, err
	}

	if err := s.repo.SaveEdge(ctx, userID, workspaceID, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// BatchGetNodes reads each node independently.
func (s *CanvasService) BatchGetNodes(ctx context.Context, userID, workspaceID string, nodeIDs []string) (*BatchResult[*canvas.Node], error) {
	if err := checkBatchSize(len(nodeIDs)); err != nil {
		return nil, err
	}
	return runBatch(ctx, s, "batch_get_nodes", nodeIDs,
		func(id string) string { return id },
		func(ctx context.Context, id string) (*canvas.Node, error) {
			return s.repo.GetNode(ctx, userID, workspaceID, id)
		})
}

// BatchSaveNodes saves each node independently with SaveNode semantics.
func (s *CanvasService) BatchSaveNodes(ctx context.Context, userID, workspaceID string, nodes []canvas.Node) (*BatchResult[*canvas.Node], error) {
	if err := checkBatchSize(len(nodes)); err != nil {
		return nil, err
	}
	return runBatch(ctx, s, "batch_save_nodes", nodes,
		func(n canvas.Node) string { return n.ID },
		func(ctx context.Context, n canvas.Node) (*canvas.Node, error) {
			return s.saveNode(ctx, userID, workspaceID, n)
		})
}

// BatchGetEdges reads each edge independently.
func (s *CanvasService) BatchGetEdges(ctx context.Context, userID, workspaceID string, edgeIDs []string) (*BatchResult[*canvas.Edge], error) {
	if err := checkBatchSize(len(edgeIDs)); err != nil {
		return nil, err
	}
	return runBatch(ctx, s, "batch_get_edges", edgeIDs,
		func(id string) string { return id },
		func(ctx context.Context, id string) (*canvas.Edge, error) {
			return s.repo.GetEdge(ctx, userID, workspaceID, id)
		})
}

// BatchSaveEdges saves each edge independently.
func (s *CanvasService) BatchSaveEdges(ctx context.Context, userID, workspaceID string, edges []canvas.Edge) (*BatchResult[*canvas.Edge], error) {
	if err := checkBatchSize(len(edges)); err != nil {
		return nil, err
	}
	return runBatch(ctx, s, "batch_save_edges", edges,
		func(e canvas.Edge) string { return e.ID },
		func(ctx context.Context, e canvas.Edge) (*canvas.Edge, error) {
			return s.saveEdge(ctx, userID, workspaceID, e)
		})
}

func checkBatchSize(n int) error {
	if n > MaxBatchItems {
		return apperrors.NewValidationError(fmt.Sprintf("a batch may hold at most %d items", MaxBatchItems))
	}
	return nil
}

// runBatch fans op out over items and itemizes the outcome in input order.
func runBatch[In any, Out any](
	ctx context.Context,
	s *CanvasService,
	operation string,
	items []In,
	idOf func(In) string,
	op func(context.Context, In) (Out, error),
) (_ *BatchResult[Out], err error) {
	ctx, span := observability.StartSpan(ctx, "CanvasService."+operation, attribute.Int("batch.size", len(items)))
	defer func() { observability.EndSpan(span, err) }()

	outs := make([]Out, len(items))
	errs := make([]error, len(items))

	err = fanOut(ctx, s.concurrency.MaxInFlight, len(items), func(ctx context.Context, i int) {
		if idOf(items[i]) == "" {
			errs[i] = apperrors.NewValidationError("id is required")
			return
		}
		outs[i], errs[i] = op(ctx, items[i])
	})
	if err != nil {
		return nil, err
	}

	result := newBatchResult[Out]()
	for i, item := range items {
		if errs[i] != nil {
			result.Failed = append(result.Failed, BatchFailure{ID: idOf(item), Error: itemError(errs[i])})
			continue
		}
		result.Succeeded = append(result.Succeeded, outs[i])
	}

	s.metrics.RecordBatch(operation, len(result.Succeeded), len(result.Failed))
	if len(result.Failed) > 0 {
		s.logger.Warn("Batch completed with failures",
			zap.String("operation", operation),
			zap.Int("succeeded", len(result.Succeeded)),
			zap.Int("failed", len(result.Failed)),
		)
	}
	return result, nil
}
