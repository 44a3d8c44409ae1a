package workspace

import "time"

// NewParams carries caller-supplied values for a new workspace.
type NewParams struct {
	Name        *string
	Description *string
	Color       *string
	Template    *Template
}

// New builds a workspace with a fresh identity. With a template, its content
// is cloned; stats always start at zero.
func New(id string, params NewParams, now time.Time) (*Workspace, error) {
	name, err := DeriveName(params.Name, params.Template, now)
	if err != nil {
		return nil, err
	}

	ms := now.UnixMilli()
	w := &Workspace{
		ID:             id,
		Name:           name,
		Tabs:           DefaultTabs(),
		ActiveTabID:    DefaultTabID,
		CreatedAt:      ms,
		UpdatedAt:      ms,
		LastAccessedAt: ms,
	}

	if t := params.Template; t != nil {
		w.Description = t.Description
		w.Color = t.Color
		w.SearchState = t.SearchState
		w.SearchStates = t.SearchStates
		if len(t.Tabs) > 0 {
			w.Tabs = cloneTabs(t.Tabs)
		}
		if t.ActiveTabID != "" {
			w.ActiveTabID = t.ActiveTabID
		}
	} else {
		if params.Description != nil {
			w.Description = *params.Description
		}
		if params.Color != nil {
			w.Color = *params.Color
		}
	}

	return w, nil
}

func cloneTabs(tabs []Tab) []Tab {
	out := make([]Tab, 0, len(tabs))
	for _, tab := range tabs {
		c := make(Tab, len(tab))
		for k, v := range tab {
			c[k] = v
		}
		out = append(out, c)
	}
	return out
}
