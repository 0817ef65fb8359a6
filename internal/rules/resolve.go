package rules

import (
	"encoding/json"
	"math"
	"strconv"
)

// TargetListKeys are the fields an arena target list may appear under,
// in priority order.
var TargetListKeys = []string{"rankList", "roleList", "targets", "targetList", "list"}

// FirstList returns the first non-empty list found under keys, in order
func FirstList(payload any, keys ...string) ([]any, bool) {
	m, ok := Map(payload)
	if !ok {
		return nil, false
	}
	for _, k := range keys {
		if list, ok := m[k].([]any); ok && len(list) > 0 {
			return list, true
		}
	}
	return nil, false
}

// FirstValue returns the first present, non-zero value under keys
func FirstValue(payload any, keys ...string) (any, bool) {
	m, ok := Map(payload)
	if !ok {
		return nil, false
	}
	for _, k := range keys {
		if v, ok := m[k]; ok && !isZero(v) {
			return v, true
		}
	}
	return nil, false
}

// PickTargetID selects the arena opponent from a target payload. The first
// candidate of the first present list wins, preferring roleId over id; with
// no list the payload's own roleId or id is used. Numeric ids come back as
// int64 and any other id is passed through as is. ok is false when nothing
// resolves, which callers treat as "no target".
func PickTargetID(payload any) (any, bool) {
	if list, ok := FirstList(payload, TargetListKeys...); ok {
		if v, ok := FirstValue(list[0], "roleId", "id"); ok {
			return targetID(v), true
		}
	}
	if v, ok := FirstValue(payload, "roleId", "id"); ok {
		return targetID(v), true
	}
	return nil, false
}

func targetID(v any) any {
	if n, ok := Int64(v); ok {
		return n
	}
	return v
}

// Map returns v as a JSON object
func Map(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok && m != nil
}

// Path walks nested objects by key
func Path(v any, keys ...string) (any, bool) {
	cur := v
	for _, k := range keys {
		m, ok := Map(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = m[k]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Int64 converts a JSON number, Go integer, or numeric string to int64
func Int64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		return int64(f), err == nil
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i, true
		}
		f, err := strconv.ParseFloat(n, 64)
		return int64(f), err == nil
	default:
		return 0, false
	}
}

// Int returns v as an int, or def when it is not numeric
func Int(v any, def int) int {
	if n, ok := Int64(v); ok {
		return int(n)
	}
	return def
}

func isZero(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	}
	if n, ok := Int64(v); ok {
		return n == 0
	}
	return false
}
