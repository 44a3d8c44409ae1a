package persistence

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/BOHARRY/courtDataAPI-sub002/pkg/timestamps"
)

// ToDocument converts a JSON-tagged value into a Document.
func ToDocument(v interface{}) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, nil
}

// FromDocument decodes a Document into a JSON-tagged value.
func FromDocument(doc Document, v interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// plain deep-copies v into JSON-compatible values so stored state never
// aliases caller memory.
func plain(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func copyDocument(doc Document) (Document, error) {
	out, err := plain(doc)
	if err != nil {
		return nil, err
	}
	m, _ := out.(map[string]interface{})
	if m == nil {
		m = map[string]interface{}{}
	}
	return Document(m), nil
}

// setField assigns value at a dotted path, creating intermediate maps.
func setField(doc Document, dotted string, value interface{}) {
	parts := strings.Split(dotted, ".")
	cur := map[string]interface{}(doc)
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

func matches(doc Document, filters []Filter) bool {
	for _, f := range filters {
		if compareValues(doc[f.Field], f.Value) != 0 {
			return false
		}
	}
	return true
}

// sortDocuments orders docs by a top-level field. Documents missing the field
// sort after those that have it, whatever the direction.
func sortDocuments(docs []Document, field string, dir Direction) {
	if field == "" {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		a, aok := docs[i][field]
		b, bok := docs[j][field]
		if !aok || !bok {
			return aok && !bok
		}
		c := compareValues(a, b)
		if dir == Descending {
			return c > 0
		}
		return c < 0
	})
}

// compareValues orders numbers numerically. Values in any stored time shape
// compare as epoch milliseconds, so legacy timestamps interleave with
// current ones. Everything else falls back to its string form.
func compareValues(a, b interface{}) int {
	af, aok := orderKey(a)
	bf, bok := orderKey(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func orderKey(v interface{}) (float64, bool) {
	if f, ok := toFloat(v); ok {
		return f, true
	}
	if ms, ok := timestamps.Parse(v); ok {
		return float64(ms), true
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
