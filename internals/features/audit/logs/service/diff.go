package service

import (
	"bytes"

	"github.com/bytedance/sonic"
)

// FieldChange is one entry of an audit diff.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Keys never reported in a diff; they change on every write.
var ignoredDiffKeys = map[string]struct{}{
	"created_at": {},
	"updated_at": {},
}

// BuildDiff returns the fields whose JSON encoding differs between before and after.
// It returns nil for a create (before == nil), a delete (after == nil) or when
// nothing changed.
func BuildDiff(before, after map[string]any) map[string]FieldChange {
	if before == nil || after == nil {
		return nil
	}

	keys := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}

	out := map[string]FieldChange{}
	for k := range keys {
		if _, skip := ignoredDiffKeys[k]; skip {
			continue
		}
		from, to := before[k], after[k]
		if jsonEqual(from, to) {
			continue
		}
		out[k] = FieldChange{From: from, To: to}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func jsonEqual(a, b any) bool {
	ab, errA := sonic.ConfigStd.Marshal(a)
	bb, errB := sonic.ConfigStd.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// ToMap turns a model (or DTO) into its JSON object form. nil stays nil.
func ToMap(v any) map[string]any {
	if v == nil {
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	raw, err := sonic.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
