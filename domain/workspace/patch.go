package workspace

import (
	"encoding/json"
	"fmt"
	"strings"
)

// OptionalMap is a patchable object field. Set distinguishes an explicit
// null, which clears the stored value, from an absent field.
type OptionalMap struct {
	Set   bool
	Value map[string]interface{}
}

// SetMap returns a present OptionalMap holding m.
func SetMap(m map[string]interface{}) OptionalMap {
	return OptionalMap{Set: true, Value: m}
}

// UnmarshalJSON is only reached when the field is present in the payload.
func (o *OptionalMap) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.Value = nil
	if string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON writes the value, or null when absent or cleared.
func (o OptionalMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value)
}

// Patch is a partial workspace update. Only these fields are mutable; any other
// field in a client payload is dropped during decoding.
type Patch struct {
	Name         *string     `json:"name"`
	Description  *string     `json:"description"`
	Color        *string     `json:"color"`
	SearchState  OptionalMap `json:"searchState"`
	SearchStates OptionalMap `json:"searchStates"`
	Tabs         *[]Tab      `json:"tabs"`
	ActiveTabID  *string     `json:"activeTabId"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Color == nil &&
		!p.SearchState.Set && !p.SearchStates.Set && p.Tabs == nil && p.ActiveTabID == nil
}

// Fields returns the store update for the patch, keyed by (possibly dotted)
// document field path. updatedAt is always set; stats.totalJudgements follows tabs.
func (p Patch) Fields(now int64) (map[string]interface{}, error) {
	fields := map[string]interface{}{"updatedAt": now}

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, fmt.Errorf("name cannot be empty")
		}
		fields["name"] = name
	}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	if p.Color != nil {
		fields["color"] = *p.Color
	}
	// a cleared map is stored as null
	if p.SearchState.Set {
		fields["searchState"] = p.SearchState.Value
	}
	if p.SearchStates.Set {
		fields["searchStates"] = p.SearchStates.Value
	}
	if p.Tabs != nil {
		tabs := *p.Tabs
		if tabs == nil {
			tabs = []Tab{}
		}
		fields["tabs"] = tabs
		fields["stats.totalJudgements"] = CountJudgements(tabs)
	}
	if p.ActiveTabID != nil {
		fields["activeTabId"] = *p.ActiveTabID
	}

	return fields, nil
}
