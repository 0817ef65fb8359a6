package rules

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPickTargetID(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    any
		ok      bool
	}{
		{"rankList roleId", map[string]any{"rankList": []any{map[string]any{"roleId": float64(7)}}}, int64(7), true},
		{"targets id", map[string]any{"targets": []any{map[string]any{"id": float64(9)}}}, int64(9), true},
		{"empty", map[string]any{}, nil, false},
		{"nil", nil, nil, false},
		{
			"roleId preferred over id",
			map[string]any{"list": []any{map[string]any{"id": 1, "roleId": 2}}},
			int64(2), true,
		},
		{
			"empty list skipped",
			map[string]any{"rankList": []any{}, "roleList": []any{map[string]any{"roleId": 5}}},
			int64(5), true,
		},
		{
			"key priority",
			map[string]any{"list": []any{map[string]any{"roleId": 1}}, "targetList": []any{map[string]any{"roleId": 4}}},
			int64(4), true,
		},
		{"top-level fallback", map[string]any{"roleId": "123"}, int64(123), true},
		{"top-level id", map[string]any{"id": json.Number("88")}, int64(88), true},
		{"opaque id passed through", map[string]any{"rankList": []any{map[string]any{"roleId": "srv2-abc"}}}, "srv2-abc", true},
		{
			"candidate without id falls back to top level",
			map[string]any{"rankList": []any{map[string]any{"name": "x"}}, "id": 3},
			int64(3), true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PickTargetID(tt.payload)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPath(t *testing.T) {
	payload := map[string]any{
		"role": map[string]any{
			"items": map[string]any{"35002": map[string]any{"quantity": float64(6)}},
		},
	}

	v, ok := Path(payload, "role", "items", "35002", "quantity")
	assert.True(t, ok)
	assert.Equal(t, 6, Int(v, 0))

	_, ok = Path(payload, "role", "missing", "quantity")
	assert.False(t, ok)
}

func TestInt64(t *testing.T) {
	for _, v := range []any{3, int64(3), float64(3), json.Number("3"), "3", "3.0"} {
		n, ok := Int64(v)
		assert.True(t, ok, "%T %v", v, v)
		assert.Equal(t, int64(3), n)
	}

	_, ok := Int64("three")
	assert.False(t, ok)
	_, ok = Int64(nil)
	assert.False(t, ok)
}
