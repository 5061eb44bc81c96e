package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFilter_NilMatchesEverything(t *testing.T) {
	var f *Filter
	assert.True(t, f.Matches(nil))
	assert.True(t, f.Matches(map[string]any{"tag": "go"}))
}

func TestFilter_Equality(t *testing.T) {
	meta := map[string]any{"tag": "go", "words": 120}

	assert.True(t, Eq("tag", "go").Matches(meta))
	assert.False(t, Eq("tag", "rust").Matches(meta))
	assert.True(t, Ne("tag", "rust").Matches(meta))
	assert.False(t, Ne("tag", "go").Matches(meta))

	// Missing key never matches, even for Ne.
	assert.False(t, Eq("missing", "go").Matches(meta))
	assert.False(t, Ne("missing", "go").Matches(meta))
}

func TestFilter_NumericCoercion(t *testing.T) {
	// Metadata round-tripped through JSON arrives as float64.
	meta := map[string]any{"words": float64(120)}

	assert.True(t, Eq("words", 120).Matches(meta))
	assert.True(t, Gt("words", 100).Matches(meta))
	assert.True(t, Gte("words", 120).Matches(meta))
	assert.False(t, Gt("words", 120).Matches(meta))
	assert.True(t, Lt("words", int64(200)).Matches(meta))
	assert.True(t, Lte("words", 120.0).Matches(meta))
}

func TestFilter_NonComparableRange(t *testing.T) {
	meta := map[string]any{"tag": "go"}

	// Range predicate against a non-numeric pair narrows, never errors.
	assert.False(t, Gt("tag", 5).Matches(meta))
	assert.True(t, Gt("tag", "a").Matches(meta))
	assert.False(t, Lt("tag", "a").Matches(meta))
}

func TestFilter_Time(t *testing.T) {
	now := time.Now()
	meta := map[string]any{"modified": now}

	assert.True(t, Gte("modified", now.Add(-time.Hour)).Matches(meta))
	assert.False(t, Lt("modified", now.Add(-time.Hour)).Matches(meta))
	assert.True(t, Eq("modified", now).Matches(meta))
}

func TestFilter_In(t *testing.T) {
	meta := map[string]any{"folder": "projects"}

	assert.True(t, In("folder", "daily", "projects").Matches(meta))
	assert.False(t, In("folder", "daily", "archive").Matches(meta))
	assert.False(t, In("missing", "daily").Matches(meta))
}

func TestFilter_Conjunction(t *testing.T) {
	meta := map[string]any{"tag": "go", "words": 120}

	assert.True(t, And(Eq("tag", "go"), Gt("words", 100)).Matches(meta))
	assert.False(t, And(Eq("tag", "go"), Gt("words", 200)).Matches(meta))

	// Empty conjunction matches everything; nil conjuncts are dropped.
	assert.True(t, And().Matches(meta))
	assert.True(t, And(nil, Eq("tag", "go")).Matches(meta))
}

func TestFilter_Bool(t *testing.T) {
	meta := map[string]any{"draft": true}

	assert.True(t, Eq("draft", true).Matches(meta))
	assert.False(t, Eq("draft", false).Matches(meta))
	assert.True(t, Ne("draft", false).Matches(meta))
}
