package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/BOHARRY/courtDataAPI-sub002/application/services"
	"github.com/BOHARRY/courtDataAPI-sub002/domain/workspace"
	"github.com/BOHARRY/courtDataAPI-sub002/pkg/common"
	apperrors "github.com/BOHARRY/courtDataAPI-sub002/pkg/errors"
	"github.com/BOHARRY/courtDataAPI-sub002/pkg/utils"
)

// WorkspaceHandler handles workspace registry requests
type WorkspaceHandler struct {
	workspaces *services.WorkspaceService
	errors     *apperrors.ErrorHandler
	logger     *zap.Logger
}

// NewWorkspaceHandler creates a new workspace handler
func NewWorkspaceHandler(workspaces *services.WorkspaceService, errs *apperrors.ErrorHandler, logger *zap.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaces: workspaces,
		errors:     errs,
		logger:     logger,
	}
}

// CreateWorkspace handles POST /workspaces
func (h *WorkspaceHandler) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req services.CreateWorkspaceInput
	if err := decode(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	ws, err := h.workspaces.Create(r.Context(), userID, req)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondSuccess(w, http.StatusCreated, common.Envelope{"workspace": ws})
}

// ListWorkspaces handles GET /workspaces?limit=&orderBy=
func (h *WorkspaceHandler) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	opts := services.ListOptions{OrderBy: r.URL.Query().Get("orderBy")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			h.errors.Handle(w, r, apperrors.NewValidationError("limit must be an integer"))
			return
		}
		opts.Limit = limit
	}

	list, err := h.workspaces.List(r.Context(), userID, opts)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondSuccess(w, http.StatusOK, common.Envelope{
		"workspaces": list,
		"total":      len(list),
	})
}

// GetActiveWorkspace handles GET /workspaces/active. The workspace is null
// when none is active.
func (h *WorkspaceHandler) GetActiveWorkspace(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	ws, err := h.workspaces.GetActive(r.Context(), userID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondSuccess(w, http.StatusOK, common.Envelope{"workspace": ws})
}

// GetWorkspace handles GET /workspaces/{workspaceID}
func (h *WorkspaceHandler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	ws, err := h.workspaces.GetByID(r.Context(), userID, workspaceIDOf(r))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondSuccess(w, http.StatusOK, common.Envelope{"workspace": ws})
}

// UpdateWorkspace handles PUT /workspaces/{workspaceID}. Fields outside the
// mutable set are ignored.
func (h *WorkspaceHandler) UpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var patch workspace.Patch
	if err := decode(r, &patch); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	ws, err := h.workspaces.Update(r.Context(), userID, workspaceIDOf(r), patch)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondSuccess(w, http.StatusOK, common.Envelope{"workspace": ws})
}

// DeleteWorkspace handles DELETE /workspaces/{workspaceID}
func (h *WorkspaceHandler) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	id := workspaceIDOf(r)
	if err := h.workspaces.Delete(r.Context(), userID, id); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondSuccess(w, http.StatusOK, common.Envelope{
		"message":     "workspace deleted",
		"workspaceId": id,
	})
}

// SetActiveWorkspace handles POST /workspaces/active/{workspaceID}
func (h *WorkspaceHandler) SetActiveWorkspace(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	id := workspaceIDOf(r)
	if err := h.workspaces.SetActive(r.Context(), userID, id); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondSuccess(w, http.StatusOK, common.Envelope{
		"message":     "workspace set as active",
		"workspaceId": id,
	})
}

// RequireWorkspace rejects requests for workspaces the caller does not have
// with 404 before any canvas document is touched.
func (h *WorkspaceHandler) RequireWorkspace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFrom(r)
		if err != nil {
			h.errors.Handle(w, r, err)
			return
		}
		if err := h.workspaces.Require(r.Context(), userID, workspaceIDOf(r)); err != nil {
			h.errors.Handle(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
