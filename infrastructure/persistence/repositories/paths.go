package repositories

import (
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/persistence"
	"github.com/BOHARRY/courtDataAPI-sub002/pkg/timestamps"
)

const (
	collectionUsers     = "users"
	collectionWorkspace = "workspaces"
	collectionSettings  = "settings"
	collectionManifests = "canvas_manifests"
	collectionNodes     = "canvas_nodes"
	collectionEdges     = "canvas_edges"

	activePointerID = "workspace"
)

func workspacesCollection(userID string) string {
	return persistence.Join(collectionUsers, userID, collectionWorkspace)
}

func workspacePath(userID, workspaceID string) string {
	return persistence.Join(workspacesCollection(userID), workspaceID)
}

func activePointerPath(userID string) string {
	return persistence.Join(collectionUsers, userID, collectionSettings, activePointerID)
}

func manifestPath(userID, workspaceID, canvasID string) string {
	return persistence.Join(workspacePath(userID, workspaceID), collectionManifests, canvasID)
}

func nodePath(userID, workspaceID, nodeID string) string {
	return persistence.Join(workspacePath(userID, workspaceID), collectionNodes, nodeID)
}

func edgePath(userID, workspaceID, edgeID string) string {
	return persistence.Join(workspacePath(userID, workspaceID), collectionEdges, edgeID)
}

// normalizeTimestamps rewrites the named fields to epoch milliseconds so legacy
// encodings decode into int64. Unreadable values are dropped.
func normalizeTimestamps(doc persistence.Document, fields ...string) {
	for _, field := range fields {
		v, ok := doc[field]
		if !ok {
			continue
		}
		if ms := timestamps.Normalize(v); ms != nil {
			doc[field] = *ms
		} else {
			delete(doc, field)
		}
	}
}
