// Package timestamps converts the time representations found in stored
// documents into epoch milliseconds.
//
// Documents written by this service always carry int64 milliseconds. Older
// documents may instead hold an object with a to-millis conversion, a
// {_seconds,_nanoseconds} or {seconds,nanos} map, or an RFC 3339 string.
package timestamps

import (
	"encoding/json"
	"math"
	"time"

	"go.uber.org/zap"
)

// Millis is implemented by values that can report themselves as epoch milliseconds.
type Millis interface {
	ToMillis() int64
}

type unixMillis interface {
	UnixMilli() int64
}

// Normalize returns v as epoch milliseconds, or nil when v is absent or not a
// recognized time shape. It never panics; unrecognized values are logged
// through the global logger.
func Normalize(v interface{}) *int64 {
	if v == nil {
		return nil
	}

	ms, ok, recovered := parse(v)
	if recovered != nil {
		zap.L().Warn("timestamp normalization panicked", zap.Any("value", v), zap.Any("panic", recovered))
		return nil
	}
	if !ok {
		zap.L().Warn("unrecognized timestamp value", zap.Any("value", v))
		return nil
	}
	return &ms
}

// Parse is Normalize without logging. Callers that inspect arbitrary values,
// such as a sort comparator, use it to tell time shapes from other data.
func Parse(v interface{}) (int64, bool) {
	if v == nil {
		return 0, false
	}
	ms, ok, recovered := parse(v)
	return ms, ok && recovered == nil
}

func parse(v interface{}) (ms int64, ok bool, recovered interface{}) {
	defer func() {
		if r := recover(); r != nil {
			ms, ok, recovered = 0, false, r
		}
	}()
	ms, ok = millisOf(v)
	return ms, ok, nil
}

func millisOf(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint64:
		if t > math.MaxInt64 {
			return 0, false
		}
		return int64(t), true
	case float64:
		return floatMillis(t)
	case float32:
		return floatMillis(float64(t))
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, true
		}
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return floatMillis(f)
	case string:
		return parseString(t)
	case *time.Time:
		if t == nil || t.IsZero() {
			return 0, false
		}
		return t.UnixMilli(), true
	case time.Time:
		if t.IsZero() {
			return 0, false
		}
		return t.UnixMilli(), true
	case Millis:
		return t.ToMillis(), true
	case unixMillis:
		return t.UnixMilli(), true
	case map[string]interface{}:
		return mapMillis(t)
	}
	return 0, false
}

func floatMillis(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(math.Round(f)), true
}

func parseString(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, false
	}
	return ts.UnixMilli(), true
}

// mapMillis handles the two seconds-plus-nanos shapes. Seconds are required;
// a missing nanos field counts as zero.
func mapMillis(m map[string]interface{}) (int64, bool) {
	for _, shape := range [][]string{
		{"_seconds", "_nanoseconds"},
		{"seconds", "nanos", "nanoseconds"},
	} {
		raw, ok := m[shape[0]]
		if !ok {
			continue
		}
		secs, ok := numberOf(raw)
		if !ok {
			return 0, false
		}
		var nanos float64
		for _, key := range shape[1:] {
			if n, present := m[key]; present {
				if nanos, ok = numberOf(n); !ok {
					return 0, false
				}
				break
			}
		}
		return floatMillis(secs*1000 + math.Floor(nanos/1e6))
	}
	return 0, false
}

func numberOf(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
