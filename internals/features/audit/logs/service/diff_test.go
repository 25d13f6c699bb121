package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildDiff(t *testing.T) {
	t.Run("changed and added keys", func(t *testing.T) {
		got := BuildDiff(
			map[string]any{"a": 1, "b": 2},
			map[string]any{"a": 1, "b": 3, "c": 4},
		)
		assert.Equal(t, map[string]FieldChange{
			"b": {From: 2, To: 3},
			"c": {From: nil, To: 4},
		}, got)
	})

	t.Run("removed key", func(t *testing.T) {
		got := BuildDiff(map[string]any{"a": "x"}, map[string]any{})
		assert.Equal(t, map[string]FieldChange{"a": {From: "x", To: nil}}, got)
	})

	t.Run("create and delete have no diff", func(t *testing.T) {
		assert.Nil(t, BuildDiff(nil, map[string]any{"a": 1}))
		assert.Nil(t, BuildDiff(map[string]any{"a": 1}, nil))
	})

	t.Run("timestamps are ignored", func(t *testing.T) {
		got := BuildDiff(
			map[string]any{"updated_at": "2025-01-01", "created_at": "x", "name": "Bella"},
			map[string]any{"updated_at": "2025-02-01", "created_at": "y", "name": "Bella"},
		)
		assert.Nil(t, got)
	})

	t.Run("compares by json encoding", func(t *testing.T) {
		got := BuildDiff(
			map[string]any{"n": float64(5), "tags": []any{"a", "b"}},
			map[string]any{"n": 5, "tags": []string{"a", "b"}},
		)
		assert.Nil(t, got)
	})
}

func TestToMap(t *testing.T) {
	type horse struct {
		Name  string `json:"name"`
		Breed string `json:"breed,omitempty"`
	}
	m := ToMap(horse{Name: "Bella"})
	assert.Equal(t, map[string]any{"name": "Bella"}, m)
	assert.Nil(t, ToMap(nil))
}
