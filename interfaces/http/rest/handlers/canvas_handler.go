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

// CanvasHandler handles canvas manifest requests
type CanvasHandler struct {
	canvas *services.CanvasService
	errors *apperrors.ErrorHandler
	logger *zap.Logger
}

// NewCanvasHandler creates a new canvas handler
func NewCanvasHandler(canvasService *services.CanvasService, errs *apperrors.ErrorHandler, logger *zap.Logger) *CanvasHandler {
	return &CanvasHandler{
		canvas: canvasService,
		errors: errs,
		logger: logger,
	}
}

// GetManifest handles GET /workspaces/{workspaceID}/canvas/{canvasID}/manifest.
// A canvas that was never saved yields an empty manifest.
func (h *CanvasHandler) GetManifest(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	m, err := h.canvas.GetManifest(r.Context(), userID, workspaceIDOf(r), chi.URLParam(r, ParamCanvasID))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondSuccess(w, http.StatusOK, common.Envelope{"manifest": m})
}

// SaveManifest handles PUT /workspaces/{workspaceID}/canvas/{canvasID}/manifest
func (h *CanvasHandler) SaveManifest(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var m canvas.Manifest
	if err := decode(r, &m); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	saved, err := h.canvas.SaveManifest(r.Context(), userID, workspaceIDOf(r), chi.URLParam(r, ParamCanvasID), m)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondSuccess(w, http.StatusOK, common.Envelope{"manifest": saved})
}

// UpdateViewportRequest is the body of a viewport update
type UpdateViewportRequest struct {
	Viewport *canvas.Viewport `json:"viewport" validate:"required"`
}

// UpdateViewport handles PATCH /workspaces/{workspaceID}/canvas/{canvasID}/viewport
func (h *CanvasHandler) UpdateViewport(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req UpdateViewportRequest
	if err := decode(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	m, err := h.canvas.UpdateViewport(r.Context(), userID, workspaceIDOf(r), chi.URLParam(r, ParamCanvasID), *req.Viewport)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondSuccess(w, http.StatusOK, common.Envelope{"manifest": m})
}
