package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BOHARRY/courtDataAPI-sub002/domain/canvas"
	"github.com/BOHARRY/courtDataAPI-sub002/infrastructure/persistence"
	apperrors "github.com/BOHARRY/courtDataAPI-sub002/pkg/errors"
)

const testWorkspace = "ws-1"

func TestCanvasService_Manifest(t *testing.T) {
	ctx := context.Background()

	t.Run("unsaved canvas returns the empty default", func(t *testing.T) {
		f := newFixture(t)

		m, err := f.canvas.GetManifest(ctx, testUser, testWorkspace, "main")

		require.NoError(t, err)
		assert.Equal(t, canvas.EmptyManifest("main"), m)
	})

	t.Run("save replaces membership and viewport", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.canvas.SaveManifest(ctx, testUser, testWorkspace, "main", canvas.Manifest{
			NodeIDs: []string{"a", "b"},
			EdgeIDs: []string{"e1"},
		})
		require.NoError(t, err)

		saved, err := f.canvas.SaveManifest(ctx, testUser, testWorkspace, "main", canvas.Manifest{
			Viewport: canvas.Viewport{X: 10, Y: 20, Zoom: 2},
			NodeIDs:  []string{"c"},
		})
		require.NoError(t, err)
		got, err := f.canvas.GetManifest(ctx, testUser, testWorkspace, "main")

		require.NoError(t, err)
		assert.Equal(t, saved, got)
		assert.Equal(t, []string{"c"}, got.NodeIDs)
		assert.Equal(t, []string{}, got.EdgeIDs)
		assert.Equal(t, canvas.ManifestVersion, got.Version)
		assert.Equal(t, f.clock.Now().UnixMilli(), got.UpdatedAt)
	})

	t.Run("viewport update touches only the viewport", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.canvas.SaveManifest(ctx, testUser, testWorkspace, "main", canvas.Manifest{NodeIDs: []string{"a"}})
		require.NoError(t, err)

		m, err := f.canvas.UpdateViewport(ctx, testUser, testWorkspace, "main", canvas.Viewport{X: -5, Y: 3, Zoom: 0.5})

		require.NoError(t, err)
		assert.Equal(t, canvas.Viewport{X: -5, Y: 3, Zoom: 0.5}, m.Viewport)
		assert.Equal(t, []string{"a"}, m.NodeIDs)
	})

	t.Run("viewport update needs a manifest", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.canvas.UpdateViewport(ctx, testUser, testWorkspace, "main", canvas.Viewport{Zoom: 1})

		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestCanvasService_NodeRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := canvas.Node{
		ID:       "note_abc",
		Type:     "note",
		Position: canvas.Position{X: 120, Y: 48.5},
		Data:     map[string]interface{}{"text": "hello", "tags": []interface{}{"a", "b"}},
	}

	saved, err := f.canvas.SaveNode(ctx, testUser, testWorkspace, in)
	require.NoError(t, err)
	got, err := f.canvas.GetNode(ctx, testUser, testWorkspace, "note_abc")

	require.NoError(t, err)
	assert.Equal(t, saved, got)
	assert.Equal(t, in.Position, got.Position)
	assert.Equal(t, in.Data, got.Data)
	assert.Equal(t, "note", got.Type)
	assert.False(t, got.AutoCreated)
}

func TestCanvasService_SaveNodeKeepsTypeAndCreatedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.canvas.SaveNode(ctx, testUser, testWorkspace, canvas.Node{ID: "law_7"})
	require.NoError(t, err)
	assert.Equal(t, "law", first.Type)

	f.clock.Advance(time.Minute)
	second, err := f.canvas.SaveNode(ctx, testUser, testWorkspace, canvas.Node{ID: "law_7", Type: "note"})

	require.NoError(t, err)
	assert.Equal(t, "law", second.Type)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, f.clock.Now().UnixMilli(), second.UpdatedAt)
}

func TestCanvasService_SaveNodeRequiresID(t *testing.T) {
	f := newFixture(t)

	_, err := f.canvas.SaveNode(context.Background(), testUser, testWorkspace, canvas.Node{})

	assert.True(t, apperrors.IsValidation(err))
}

func TestCanvasService_SaveNodeReportsLostCreateRace(t *testing.T) {
	// Arrange
	f := newFixture(t)
	path := fmt.Sprintf("users/%s/workspaces/%s/canvas_nodes/law_7", testUser, testWorkspace)
	f.store.SetPathError("Create", path, persistence.ErrAlreadyExists)

	// Act
	_, err := f.canvas.SaveNode(context.Background(), testUser, testWorkspace, canvas.Node{ID: "law_7"})

	// Assert
	require.Error(t, err)
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeConflict, appErr.Type)
	assert.Equal(t, codeConcurrentWrite, appErr.Code)
	assert.Equal(t, 409, appErr.HTTPStatus)
}

func TestCanvasService_SaveEdgeValidationDetails(t *testing.T) {
	f := newFixture(t)

	_, err := f.canvas.SaveEdge(context.Background(), testUser, testWorkspace, canvas.Edge{ID: "e1"})

	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	fields, ok := appErr.Details["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "source is required", fields["source"])
	assert.Equal(t, "target is required", fields["target"])
}

func TestCanvasService_DisjointNodeUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.canvas.SaveNode(ctx, testUser, testWorkspace, canvas.Node{ID: "case_1", Data: map[string]interface{}{"v": "old"}})
	require.NoError(t, err)

	require.NoError(t, f.canvas.UpdateNodePosition(ctx, testUser, testWorkspace, "case_1", canvas.Position{X: 5, Y: 6}))
	require.NoError(t, f.canvas.UpdateNodeContent(ctx, testUser, testWorkspace, "case_1", map[string]interface{}{"v": "new"}))

	got, err := f.canvas.GetNode(ctx, testUser, testWorkspace, "case_1")
	require.NoError(t, err)
	assert.Equal(t, canvas.Position{X: 5, Y: 6}, got.Position)
	assert.Equal(t, map[string]interface{}{"v": "new"}, got.Data)
	assert.Equal(t, "case", got.Type)

	err = f.canvas.UpdateNodePosition(ctx, testUser, testWorkspace, "missing", canvas.Position{})
	assert.True(t, apperrors.IsNotFound(err))
	err = f.canvas.UpdateNodeContent(ctx, testUser, testWorkspace, "missing", nil)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCanvasService_BatchGetNodes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, id := range []string{"a1", "a3"} {
		_, err := f.canvas.SaveNode(ctx, testUser, testWorkspace, canvas.Node{ID: id})
		require.NoError(t, err)
	}

	result, err := f.canvas.BatchGetNodes(ctx, testUser, testWorkspace, []string{"a1", "a2", "a3"})

	require.NoError(t, err)
	require.Len(t, result.Succeeded, 2)
	assert.Equal(t, "a1", result.Succeeded[0].ID)
	assert.Equal(t, "a3", result.Succeeded[1].ID)
	assert.Equal(t, []BatchFailure{{ID: "a2", Error: "not found"}}, result.Failed)
}

func TestCanvasService_BatchSaveNodesPartialFailure(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	f.store.SetPathError("Create", nodePath(testWorkspace, "n2"), errors.New("write rejected"))
	nodes := []canvas.Node{{ID: "n1"}, {ID: "n2"}, {ID: "n3"}}

	// Act
	result, err := f.canvas.BatchSaveNodes(ctx, testUser, testWorkspace, nodes)

	// Assert
	require.NoError(t, err)
	require.Len(t, result.Succeeded, 2)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "n2", result.Failed[0].ID)
	assert.Equal(t, "write rejected", result.Failed[0].Error)

	for _, id := range []string{"n1", "n3"} {
		_, err := f.canvas.GetNode(ctx, testUser, testWorkspace, id)
		assert.NoError(t, err, "node %s should not be rolled back", id)
	}
	_, err = f.canvas.GetNode(ctx, testUser, testWorkspace, "n2")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCanvasService_BatchItemsWithoutID(t *testing.T) {
	f := newFixture(t)

	result, err := f.canvas.BatchSaveNodes(context.Background(), testUser, testWorkspace, []canvas.Node{{ID: "x"}, {}})

	require.NoError(t, err)
	assert.Len(t, result.Succeeded, 1)
	assert.Equal(t, []BatchFailure{{ID: "", Error: "id is required"}}, result.Failed)
}

func TestCanvasService_BatchTooLarge(t *testing.T) {
	f := newFixture(t)
	ids := make([]string, MaxBatchItems+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("n%d", i)
	}

	_, err := f.canvas.BatchGetNodes(context.Background(), testUser, testWorkspace, ids)

	assert.True(t, apperrors.IsValidation(err))
}

func TestCanvasService_Edges(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip keeps createdAt", func(t *testing.T) {
		f := newFixture(t)
		first, err := f.canvas.SaveEdge(ctx, testUser, testWorkspace, canvas.Edge{ID: "e1", Source: "a", Target: "b"})
		require.NoError(t, err)
		f.clock.Advance(time.Second)

		second, err := f.canvas.SaveEdge(ctx, testUser, testWorkspace, canvas.Edge{ID: "e1", Source: "a", Target: "c"})
		require.NoError(t, err)
		got, err := f.canvas.GetEdge(ctx, testUser, testWorkspace, "e1")

		require.NoError(t, err)
		assert.Equal(t, second, got)
		assert.Equal(t, "c", got.Target)
		assert.Equal(t, first.CreatedAt, got.CreatedAt)
	})

	t.Run("endpoints are required", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.canvas.SaveEdge(ctx, testUser, testWorkspace, canvas.Edge{ID: "e1", Source: "a"})

		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("dangling endpoints are accepted", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.canvas.SaveEdge(ctx, testUser, testWorkspace, canvas.Edge{ID: "e1", Source: "ghost", Target: "phantom"})

		assert.NoError(t, err)
	})

	t.Run("batch", func(t *testing.T) {
		f := newFixture(t)
		saved, err := f.canvas.BatchSaveEdges(ctx, testUser, testWorkspace, []canvas.Edge{
			{ID: "e1", Source: "a", Target: "b"},
			{ID: "e2", Source: "a"},
		})
		require.NoError(t, err)
		assert.Len(t, saved.Succeeded, 1)
		require.Len(t, saved.Failed, 1)
		assert.Equal(t, "e2", saved.Failed[0].ID)

		got, err := f.canvas.BatchGetEdges(ctx, testUser, testWorkspace, []string{"e1", "e2"})
		require.NoError(t, err)
		assert.Len(t, got.Succeeded, 1)
		assert.Equal(t, []BatchFailure{{ID: "e2", Error: "not found"}}, got.Failed)
	})
}

func TestCanvasService_StoreUnavailable(t *testing.T) {
	f := newFixture(t)
	f.store.SetError("Get", persistence.ErrUnavailable)

	_, err := f.canvas.GetManifest(context.Background(), testUser, testWorkspace, "main")

	assert.True(t, apperrors.IsUnavailable(err))
}
