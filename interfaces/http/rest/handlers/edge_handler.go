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

// EdgeHandler handles canvas edge requests
type EdgeHandler struct {
	canvas *services.CanvasService
	errors *apperrors.ErrorHandler
	logger *zap.Logger
}

// NewEdgeHandler creates a new edge handler
func NewEdgeHandler(canvasService *services.CanvasService, errs *apperrors.ErrorHandler, logger *zap.Logger) *EdgeHandler {
	return &EdgeHandler{
		canvas: canvasService,
		errors: errs,
		logger: logger,
	}
}

// BatchGetEdgesRequest lists the IDs to read
type BatchGetEdgesRequest struct {
	EdgeIDs []string `json:"edgeIds" validate:"required"`
}

// BatchSaveEdgesRequest carries the edges to write
type BatchSaveEdgesRequest struct {
	Edges []canvas.Edge `json:"edges" validate:"required"`
}

// GetEdge handles GET /workspaces/{workspaceID}/edges/{edgeID}
func (h *EdgeHandler) GetEdge(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	e, err := h.canvas.GetEdge(r.Context(), userID, workspaceIDOf(r), chi.URLParam(r, ParamEdgeID))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondSuccess(w, http.StatusOK, common.Envelope{"edge": e})
}

// SaveEdge handles PUT /workspaces/{workspaceID}/edges/{edgeID}
func (h *EdgeHandler) SaveEdge(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var e canvas.Edge
	if err := decode(r, &e); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	edgeID := chi.URLParam(r, ParamEdgeID)
	if e.ID != "" && e.ID != edgeID {
		h.errors.Handle(w, r, apperrors.NewValidationError("edge id does not match path"))
		return
	}
	e.ID = edgeID

	saved, err := h.canvas.SaveEdge(r.Context(), userID, workspaceIDOf(r), e)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondSuccess(w, http.StatusOK, common.Envelope{"edge": saved})
}

// BatchGetEdges handles POST /workspaces/{workspaceID}/edges/batch
func (h *EdgeHandler) BatchGetEdges(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req BatchGetEdgesRequest
	if err := decode(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.canvas.BatchGetEdges(r.Context(), userID, workspaceIDOf(r), req.EdgeIDs)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondSuccess(w, http.StatusOK, batchEnvelope(result))
}

// BatchSaveEdges handles PUT /workspaces/{workspaceID}/edges/batch
func (h *EdgeHandler) BatchSaveEdges(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req BatchSaveEdgesRequest
	if err := decode(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.canvas.BatchSaveEdges(r.Context(), userID, workspaceIDOf(r), req.Edges)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondSuccess(w, http.StatusOK, batchEnvelope(result))
}
