package timestamps

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type storeTimestamp struct {
	seconds int64
	nanos   int64
}

func (s storeTimestamp) ToMillis() int64 {
	return s.seconds*1000 + s.nanos/1e6
}

func TestNormalize_SameInstantAcrossShapes(t *testing.T) {
	instant := time.Date(2024, 3, 5, 10, 30, 15, 250_000_000, time.UTC)
	want := instant.UnixMilli()

	tests := []struct {
		name  string
		value interface{}
	}{
		{name: "native int64 millis", value: want},
		{name: "native float millis", value: float64(want)},
		{name: "json number", value: json.Number("1709634615250")},
		{name: "to-millis object", value: storeTimestamp{seconds: instant.Unix(), nanos: 250_000_000}},
		{name: "time value", value: instant},
		{name: "underscore seconds map", value: map[string]interface{}{"_seconds": float64(instant.Unix()), "_nanoseconds": float64(250_000_000)}},
		{name: "seconds map", value: map[string]interface{}{"seconds": instant.Unix(), "nanos": 250_000_000}},
		{name: "rfc3339 string", value: "2024-03-05T10:30:15.25Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.value)
			require.NotNil(t, got)
			assert.Equal(t, want, *got)
		})
	}
}

func TestNormalize_SecondsWithoutNanos(t *testing.T) {
	got := Normalize(map[string]interface{}{"seconds": 1700000000})
	require.NotNil(t, got)
	assert.Equal(t, int64(1700000000000), *got)
}

func TestNormalize_UnrecognizedReturnsNil(t *testing.T) {
	var nilTime *time.Time

	tests := []struct {
		name  string
		value interface{}
	}{
		{name: "nil", value: nil},
		{name: "nil time pointer", value: nilTime},
		{name: "zero time", value: time.Time{}},
		{name: "garbage string", value: "yesterday"},
		{name: "empty string", value: ""},
		{name: "NaN", value: math.NaN()},
		{name: "infinity", value: math.Inf(1)},
		{name: "bool", value: true},
		{name: "empty map", value: map[string]interface{}{}},
		{name: "map with non-numeric seconds", value: map[string]interface{}{"seconds": "soon"}},
		{name: "map with bad nanos", value: map[string]interface{}{"_seconds": 1, "_nanoseconds": "x"}},
		{name: "slice", value: []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Nil(t, Normalize(tt.value))
			})
		})
	}
}

type panickyMillis struct{}

func (panickyMillis) ToMillis() int64 { panic("boom") }

func TestNormalize_RecoversFromPanickingValue(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.Nil(t, Normalize(panickyMillis{}))
	})
}

func TestParse_ReportsWithoutLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	undo := zap.ReplaceGlobals(zap.New(core))
	defer undo()

	ms, ok := Parse(map[string]interface{}{"_seconds": float64(1000000000)})
	assert.True(t, ok)
	assert.Equal(t, int64(1000000000000), ms)

	_, ok = Parse("not a time")
	assert.False(t, ok)
	_, ok = Parse(panickyMillis{})
	assert.False(t, ok)
	_, ok = Parse(nil)
	assert.False(t, ok)

	assert.Zero(t, logs.Len())
}

func TestNormalize_LogsUnrecognizedValuesToGlobalLogger(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	undo := zap.ReplaceGlobals(zap.New(core))
	defer undo()

	assert.Nil(t, Normalize("yesterday"))
	assert.Nil(t, Normalize(panickyMillis{}))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "unrecognized timestamp value", entries[0].Message)
	assert.Equal(t, "timestamp normalization panicked", entries[1].Message)
}
