package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BOHARRY/courtDataAPI-sub002/application/services"
	"github.com/BOHARRY/courtDataAPI-sub002/pkg/auth"
	"github.com/BOHARRY/courtDataAPI-sub002/pkg/common"
	apperrors "github.com/BOHARRY/courtDataAPI-sub002/pkg/errors"
)

// URL parameter names shared with the router
const (
	ParamWorkspaceID = "workspaceID"
	ParamCanvasID    = "canvasID"
	ParamNodeID      = "nodeID"
	ParamEdgeID      = "edgeID"
)

func userIDFrom(r *http.Request) (string, error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return "", apperrors.NewUnauthorizedError("Unauthorized")
	}
	return userID, nil
}

// decode parses the request body into v.
func decode(r *http.Request, v interface{}) error {
	if err := common.ParseJSONBody(r, v); err != nil {
		return apperrors.NewValidationError("Invalid request body: " + err.Error())
	}
	return nil
}

func workspaceIDOf(r *http.Request) string {
	return chi.URLParam(r, ParamWorkspaceID)
}

// batchEnvelope serializes an itemized result under its own field names.
func batchEnvelope[T any](result *services.BatchResult[T]) common.Envelope {
	return common.Envelope{
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	}
}
