package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BOHARRY/courtDataAPI-sub002/application/services"
	"github.com/BOHARRY/courtDataAPI-sub002/pkg/common"
	apperrors "github.com/BOHARRY/courtDataAPI-sub002/pkg/errors"
)

// RepairHandler exposes the node consistency repair pass
type RepairHandler struct {
	repair *services.RepairService
	errors *apperrors.ErrorHandler
	logger *zap.Logger
}

// NewRepairHandler creates a new repair handler
func NewRepairHandler(repair *services.RepairService, errs *apperrors.ErrorHandler, logger *zap.Logger) *RepairHandler {
	return &RepairHandler{
		repair: repair,
		errors: errs,
		logger: logger,
	}
}

// RepairRequest lists the node IDs the client's canvas references
type RepairRequest struct {
	FrontendNodeIDs []string `json:"frontendNodeIds"`
}

// RepairNodes handles POST /workspaces/{workspaceID}/nodes/repair
func (h *RepairHandler) RepairNodes(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req RepairRequest
	if err := decode(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	report, err := h.repair.Repair(r.Context(), userID, workspaceIDOf(r), req.FrontendNodeIDs)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondSuccess(w, http.StatusOK, common.Envelope{"report": report})
}
