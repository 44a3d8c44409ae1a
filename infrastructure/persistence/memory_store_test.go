package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryStore_GetSetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())

	_, err := store.Get(ctx, "users/u1/workspaces/w1")
	assert.ErrorIs(t, err, ErrNotFound)

	doc := Document{"name": "alpha", "stats": map[string]interface{}{"totalJudgements": 0}}
	require.NoError(t, store.Set(ctx, "users/u1/workspaces/w1", doc))

	// stored copy is isolated from the caller
	doc["name"] = "mutated"

	got, err := store.Get(ctx, "users/u1/workspaces/w1")
	require.NoError(t, err)
	assert.Equal(t, "alpha", got["name"])

	got["name"] = "mutated again"
	again, err := store.Get(ctx, "users/u1/workspaces/w1")
	require.NoError(t, err)
	assert.Equal(t, "alpha", again["name"])
}

func TestMemoryStore_SetMerge(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())
	path := "users/u1/settings/workspace"

	require.NoError(t, store.Set(ctx, path, Document{"currentWorkspaceId": "w1", "theme": "dark"}, Merge()))
	require.NoError(t, store.Set(ctx, path, Document{"currentWorkspaceId": "w2"}, Merge()))

	got, err := store.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "w2", got["currentWorkspaceId"])
	assert.Equal(t, "dark", got["theme"])

	require.NoError(t, store.Set(ctx, path, Document{"currentWorkspaceId": "w3"}))
	got, err = store.Get(ctx, path)
	require.NoError(t, err)
	assert.NotContains(t, got, "theme")
}

func TestMemoryStore_Create(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())

	require.NoError(t, store.Create(ctx, "c/n1", Document{"type": "case"}))
	err := store.Create(ctx, "c/n1", Document{"type": "note"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	got, err := store.Get(ctx, "c/n1")
	require.NoError(t, err)
	assert.Equal(t, "case", got["type"])
}

func TestMemoryStore_UpdateDottedFields(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())

	err := store.Update(ctx, "c/missing", map[string]interface{}{"a": 1})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "c/d", Document{
		"stats": map[string]interface{}{"totalJudgements": 0, "totalNotes": 4},
		"name":  "x",
	}))
	require.NoError(t, store.Update(ctx, "c/d", map[string]interface{}{
		"stats.totalJudgements": 3,
		"position":              map[string]interface{}{"x": 1.5, "y": 2},
	}))

	got, err := store.Get(ctx, "c/d")
	require.NoError(t, err)
	stats := got["stats"].(map[string]interface{})
	assert.Equal(t, float64(3), stats["totalJudgements"])
	assert.Equal(t, float64(4), stats["totalNotes"])
	assert.Equal(t, "x", got["name"])
	assert.Equal(t, 1.5, got["position"].(map[string]interface{})["x"])
}

func TestMemoryStore_Query(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())

	require.NoError(t, store.Set(ctx, "users/u1/workspaces/a", Document{"name": "b", "lastAccessedAt": 10, "color": "red"}))
	require.NoError(t, store.Set(ctx, "users/u1/workspaces/b", Document{"name": "a", "lastAccessedAt": 30, "color": "blue"}))
	require.NoError(t, store.Set(ctx, "users/u1/workspaces/c", Document{"name": "c", "lastAccessedAt": 20, "color": "red"}))
	// nested and foreign documents are not members
	require.NoError(t, store.Set(ctx, "users/u1/workspaces/a/canvas_nodes/n1", Document{"name": "node"}))
	require.NoError(t, store.Set(ctx, "users/u2/workspaces/z", Document{"name": "z"}))

	t.Run("order desc with limit", func(t *testing.T) {
		docs, err := store.Query(ctx, "users/u1/workspaces", Query{OrderBy: "lastAccessedAt", Direction: Descending, Limit: 2})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "a", docs[0]["name"])
		assert.Equal(t, "c", docs[1]["name"])
	})

	t.Run("order asc by name", func(t *testing.T) {
		docs, err := store.Query(ctx, "users/u1/workspaces", Query{OrderBy: "name", Direction: Ascending})
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, []interface{}{"a", "b", "c"}, []interface{}{docs[0]["name"], docs[1]["name"], docs[2]["name"]})
	})

	t.Run("equality filter", func(t *testing.T) {
		docs, err := store.Query(ctx, "users/u1/workspaces", Query{Filters: []Filter{{Field: "color", Value: "red"}}})
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})
}

func TestMemoryStore_QueryOrdersLegacyTimestampsByInstant(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())

	// 2001 in a seconds map, 2024 in millis, 2010 as an RFC 3339 string
	require.NoError(t, store.Set(ctx, "users/u1/workspaces/legacy", Document{"name": "legacy", "lastAccessedAt": map[string]interface{}{"_seconds": float64(1000000000)}}))
	require.NoError(t, store.Set(ctx, "users/u1/workspaces/fresh", Document{"name": "fresh", "lastAccessedAt": int64(1709634615250)}))
	require.NoError(t, store.Set(ctx, "users/u1/workspaces/middle", Document{"name": "middle", "lastAccessedAt": "2010-06-01T00:00:00Z"}))

	docs, err := store.Query(ctx, "users/u1/workspaces", Query{OrderBy: "lastAccessedAt", Direction: Descending})

	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []interface{}{"fresh", "middle", "legacy"}, []interface{}{docs[0]["name"], docs[1]["name"], docs[2]["name"]})

	limited, err := store.Query(ctx, "users/u1/workspaces", Query{OrderBy: "lastAccessedAt", Direction: Descending, Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "fresh", limited[0]["name"])
}

func TestMemoryStore_FaultInjection(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(zap.NewNop())
	boom := errors.New("boom")

	store.SetPathError("Set", "c/2", boom)
	assert.NoError(t, store.Set(ctx, "c/1", Document{}))
	assert.ErrorIs(t, store.Set(ctx, "c/2", Document{}), boom)

	store.SetPathError("Set", "c/2", nil)
	assert.NoError(t, store.Set(ctx, "c/2", Document{}))

	store.SetError("Get", ErrUnavailable)
	_, err := store.Get(ctx, "c/1")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Error(t, store.HealthCheck(ctx))

	store.SetError("Get", nil)
	_, err = store.Get(ctx, "c/1")
	assert.NoError(t, err)
}

func TestMemoryStore_RespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemoryStore(zap.NewNop())
	_, err := store.Get(ctx, "c/1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplitAndJoin(t *testing.T) {
	path := Join("users", "u1", "workspaces", "w1")
	assert.Equal(t, "users/u1/workspaces/w1", path)

	collection, id := Split(path)
	assert.Equal(t, "users/u1/workspaces", collection)
	assert.Equal(t, "w1", id)
}
