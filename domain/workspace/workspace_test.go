package workspace

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func TestDeriveName(t *testing.T) {
	now := time.Date(2025, 6, 19, 20, 29, 0, 0, time.UTC)

	tests := []struct {
		name     string
		explicit *string
		template *Template
		want     string
		wantErr  bool
	}{
		{name: "explicit name is trimmed", explicit: strPtr("  Case review  "), want: "Case review"},
		{name: "explicit name wins over template", explicit: strPtr("Mine"), template: &Template{Name: "Review"}, want: "Mine"},
		{name: "blank explicit name rejected", explicit: strPtr("   "), wantErr: true},
		{name: "template name gets copy suffix", template: &Template{Name: "Review"}, want: "Review (copy)"},
		{name: "unnamed template falls back to date", template: &Template{}, want: "Workspace 2025.0619.2029"},
		{name: "compact date default", want: "Workspace 2025.0619.2029"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeriveName(tt.explicit, tt.template, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)

	w, err := New("ws-1", NewParams{Description: strPtr("notes"), Color: strPtr("#fff")}, now)
	require.NoError(t, err)

	assert.Equal(t, "ws-1", w.ID)
	assert.Equal(t, "notes", w.Description)
	assert.Equal(t, "#fff", w.Color)
	require.Len(t, w.Tabs, 1)
	assert.Equal(t, DefaultTabID, w.Tabs[0]["id"])
	assert.Equal(t, DefaultTabID, w.ActiveTabID)
	assert.Equal(t, Stats{}, w.Stats)
	assert.Equal(t, now.UnixMilli(), w.CreatedAt)
	assert.Equal(t, w.CreatedAt, w.UpdatedAt)
	assert.Equal(t, w.CreatedAt, w.LastAccessedAt)
}

func TestNew_FromTemplateResetsStats(t *testing.T) {
	tmpl := &Template{
		Name:        "Review",
		Description: "x",
		Tabs: []Tab{
			{"id": "SEARCH_LIST", "type": "list"},
			{"id": "j1", "type": "judgement"},
			{"id": "j2", "type": "judgement"},
		},
		ActiveTabID: "j1",
		SearchState: map[string]interface{}{"query": "contract"},
	}

	w, err := New("ws-2", NewParams{Template: tmpl}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "Review (copy)", w.Name)
	assert.Equal(t, "x", w.Description)
	assert.Len(t, w.Tabs, 3)
	assert.Equal(t, "j1", w.ActiveTabID)
	assert.Equal(t, "contract", w.SearchState["query"])
	assert.Equal(t, 0, w.Stats.TotalJudgements)

	// cloned tabs are independent of the template
	w.Tabs[1]["type"] = "note"
	assert.Equal(t, "judgement", tmpl.Tabs[1].Kind())
}

func TestPatch_Fields(t *testing.T) {
	t.Run("only whitelisted fields and updatedAt", func(t *testing.T) {
		p := Patch{Description: strPtr("d")}
		fields, err := p.Fields(99)
		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"description": "d", "updatedAt": int64(99)}, fields)
	})

	t.Run("tabs recompute judgement count", func(t *testing.T) {
		tabs := []Tab{{"type": "judgement"}, {"type": "list"}, {"type": "judgement"}}
		fields, err := Patch{Tabs: &tabs}.Fields(1)
		require.NoError(t, err)
		assert.Equal(t, 2, fields["stats.totalJudgements"])
		assert.NotContains(t, fields, "lastAccessedAt")
	})

	t.Run("blank name rejected", func(t *testing.T) {
		_, err := Patch{Name: strPtr(" ")}.Fields(1)
		assert.Error(t, err)
	})
}

func TestPatch_DecodeSearchState(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantEmpty bool
		wantField bool
		wantValue interface{}
	}{
		{name: "absent", body: `{}`, wantEmpty: true},
		{name: "explicit null clears", body: `{"searchState":null}`, wantField: true, wantValue: map[string]interface{}(nil)},
		{name: "object replaces", body: `{"searchState":{"query":"lease"}}`, wantField: true, wantValue: map[string]interface{}{"query": "lease"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Patch
			require.NoError(t, json.Unmarshal([]byte(tt.body), &p))

			assert.Equal(t, tt.wantEmpty, p.IsEmpty())
			fields, err := p.Fields(1)
			require.NoError(t, err)
			got, ok := fields["searchState"]
			assert.Equal(t, tt.wantField, ok)
			if tt.wantField {
				assert.Equal(t, tt.wantValue, got)
			}
		})
	}
}

func TestPatch_DecodeSearchStatesNull(t *testing.T) {
	var p Patch
	require.NoError(t, json.Unmarshal([]byte(`{"searchStates":null}`), &p))

	assert.True(t, p.SearchStates.Set)
	assert.False(t, p.SearchState.Set)
	assert.False(t, p.IsEmpty())
}

func TestCountJudgements(t *testing.T) {
	assert.Equal(t, 0, CountJudgements(nil))
	assert.Equal(t, 1, CountJudgements([]Tab{{"type": "judgement"}, {"type": 7}, {}}))
}
