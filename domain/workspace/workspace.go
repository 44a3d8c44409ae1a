package workspace

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultTabID is the search list tab every new workspace starts with.
	DefaultTabID = "SEARCH_LIST"

	// TabKindJudgement marks tabs counted into Stats.TotalJudgements.
	TabKindJudgement = "judgement"

	copySuffix    = " (copy)"
	defaultPrefix = "Workspace "
)

// Tab is a client-owned tab descriptor. Only its type is interpreted here.
type Tab map[string]interface{}

// Kind returns the tab's type field, or "" when absent.
func (t Tab) Kind() string {
	kind, _ := t["type"].(string)
	return kind
}

// Stats are usage counters. They always start at zero.
type Stats struct {
	TotalSearches   int `json:"totalSearches"`
	TotalJudgements int `json:"totalJudgements"`
	TotalNotes      int `json:"totalNotes"`
}

// Workspace is a user's analysis workspace. Timestamps are epoch milliseconds.
type Workspace struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	Color          string                 `json:"color,omitempty"`
	Tabs           []Tab                  `json:"tabs"`
	ActiveTabID    string                 `json:"activeTabId"`
	SearchState    map[string]interface{} `json:"searchState"`
	SearchStates   map[string]interface{} `json:"searchStates,omitempty"`
	Stats          Stats                  `json:"stats"`
	CreatedAt      int64                  `json:"createdAt"`
	UpdatedAt      int64                  `json:"updatedAt"`
	LastAccessedAt int64                  `json:"lastAccessedAt"`
}

// Template is a workspace shape to clone from. Its stats and identity are never copied.
type Template struct {
	Name         string                 `json:"name"`
	Description  string                 `json:"description"`
	Color        string                 `json:"color"`
	Tabs         []Tab                  `json:"tabs"`
	ActiveTabID  string                 `json:"activeTabId"`
	SearchState  map[string]interface{} `json:"searchState"`
	SearchStates map[string]interface{} `json:"searchStates"`
}

// ActivePointer is the per-user record of the currently open workspace.
type ActivePointer struct {
	CurrentWorkspaceID string `json:"currentWorkspaceId"`
	UpdatedAt          int64  `json:"updatedAt"`
}

// DefaultTabs returns the tab list of a workspace created without tabs.
func DefaultTabs() []Tab {
	return []Tab{{
		"id":    DefaultTabID,
		"type":  "list",
		"title": "Search List",
		"order": 0,
	}}
}

// CountJudgements counts tabs of kind judgement.
func CountJudgements(tabs []Tab) int {
	n := 0
	for _, tab := range tabs {
		if tab.Kind() == TabKindJudgement {
			n++
		}
	}
	return n
}

// DeriveName picks a workspace name. An explicit name wins, then the template
// name with a copy suffix, then a compact timestamp default.
func DeriveName(explicit *string, template *Template, now time.Time) (string, error) {
	if explicit != nil {
		name := strings.TrimSpace(*explicit)
		if name == "" {
			return "", fmt.Errorf("name cannot be empty")
		}
		return name, nil
	}
	if template != nil {
		if base := strings.TrimSpace(template.Name); base != "" {
			return base + copySuffix, nil
		}
	}
	return defaultPrefix + CompactDate(now), nil
}

// CompactDate formats t as yyyy.MMdd.HHmm.
func CompactDate(t time.Time) string {
	return t.Format("2006.0102.1504")
}
