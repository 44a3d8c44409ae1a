package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BOHARRY/courtDataAPI-sub002/application/services"
	"github.com/BOHARRY/courtDataAPI-sub002/domain/canvas"
	"github.com/BOHARRY/courtDataAPI-sub002/pkg/common"
	apperrors "github.com/BOHARRY/courtDataAPI-sub002/pkg/errors"
	"github.com/BOHARRY/courtDataAPI-sub002/pkg/utils"
)

// NodeHandler handles canvas node requests
type NodeHandler struct {
	canvas *services.CanvasService
	errors *apperrors.ErrorHandler
	logger *zap.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(canvasService *services.CanvasService, errs *apperrors.ErrorHandler, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{
		canvas: canvasService,
		errors: errs,
		logger: logger,
	}
}

// UpdatePositionRequest is the body of a position update
type UpdatePositionRequest struct {
	Position *canvas.Position `json:"position" validate:"required"`
}

// UpdateContentRequest is the body of a content update
type UpdateContentRequest struct {
	Data map[string]interface{} `json:"data" validate:"required"`
}

// BatchGetRequest lists the IDs to read
type BatchGetRequest struct {
	NodeIDs []string `json:"nodeIds" validate:"required"`
}

// BatchSaveNodesRequest carries the nodes to write
type BatchSaveNodesRequest struct {
	Nodes []canvas.Node `json:"nodes" validate:"required"`
}

// GetNode handles GET /workspaces/{workspaceID}/nodes/{nodeID}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	n, err := h.canvas.GetNode(r.Context(), userID, workspaceIDOf(r), chi.URLParam(r, ParamNodeID))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondSuccess(w, http.StatusOK, common.Envelope{"node": n})
}

// SaveNode handles PUT /workspaces/{workspaceID}/nodes/{nodeID}. The ID in the
// path is authoritative; a body ID must match it.
func (h *NodeHandler) SaveNode(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var n canvas.Node
	if err := decode(r, &n); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	nodeID := chi.URLParam(r, ParamNodeID)
	if n.ID != "" && n.ID != nodeID {
		h.errors.Handle(w, r, apperrors.NewValidationError("node id does not match path"))
		return
	}
	n.ID = nodeID

	saved, err := h.canvas.SaveNode(r.Context(), userID, workspaceIDOf(r), n)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondSuccess(w, http.StatusOK, common.Envelope{"node": saved})
}

// UpdatePosition handles PATCH /workspaces/{workspaceID}/nodes/{nodeID}/position
func (h *NodeHandler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req UpdatePositionRequest
	if err := decode(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	nodeID := chi.URLParam(r, ParamNodeID)
	if err := h.canvas.UpdateNodePosition(r.Context(), userID, workspaceIDOf(r), nodeID, *req.Position); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondSuccess(w, http.StatusOK, common.Envelope{"nodeId": nodeID})
}

// UpdateContent handles PATCH /workspaces/{workspaceID}/nodes/{nodeID}/content
func (h *NodeHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req UpdateContentRequest
	if err := decode(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	nodeID := chi.URLParam(r, ParamNodeID)
	if err := h.canvas.UpdateNodeContent(r.Context(), userID, workspaceIDOf(r), nodeID, req.Data); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondSuccess(w, http.StatusOK, common.Envelope{"nodeId": nodeID})
}

// BatchGetNodes handles POST /workspaces/{workspaceID}/nodes/batch.
// Missing nodes are reported per item; the call itself still succeeds.
func (h *NodeHandler) BatchGetNodes(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req BatchGetRequest
	if err := decode(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.canvas.BatchGetNodes(r.Context(), userID, workspaceIDOf(r), req.NodeIDs)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondSuccess(w, http.StatusOK, batchEnvelope(result))
}

// BatchSaveNodes handles PUT /workspaces/{workspaceID}/nodes/batch
func (h *NodeHandler) BatchSaveNodes(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req BatchSaveNodesRequest
	if err := decode(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.canvas.BatchSaveNodes(r.Context(), userID, workspaceIDOf(r), req.Nodes)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if len(result.Failed) > 0 {
		h.logger.Warn("Batch node save partially failed",
			zap.String("workspaceID", workspaceIDOf(r)),
			zap.Int("saved", len(result.Succeeded)),
			zap.Int("failed", len(result.Failed)),
		)
	}

	common.RespondSuccess(w, http.StatusOK, batchEnvelope(result))
}
