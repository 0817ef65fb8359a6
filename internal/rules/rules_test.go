package rules

import (
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var shanghai = time.FixedZone("CST", 8*3600)

func TestIsTodayAvailable(t *testing.T) {
	now := time.Date(2026, 10, 21, 10, 0, 0, 0, shanghai)
	earlier := now.Add(-2 * time.Hour)
	yesterday := now.Add(-24 * time.Hour)

	tests := []struct {
		name string
		ts   any
		want bool
	}{
		{"absent", nil, true},
		{"zero", float64(0), true},
		{"empty string", "", true},
		{"today seconds", float64(earlier.Unix()), false},
		{"today millis", float64(earlier.UnixMilli()), false},
		{"today json number", json.Number(strconv.FormatInt(earlier.UnixMilli(), 10)), false},
		{"today rfc3339", earlier.UTC().Format(time.RFC3339), false},
		{"yesterday seconds", float64(yesterday.Unix()), true},
		{"yesterday millis", yesterday.UnixMilli(), true},
		{"garbage", "not a time", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTodayAvailable(now, tt.ts))
		})
	}
}

// The same instant can be "yesterday" in one zone and "today" in another.
func TestIsTodayAvailableUsesLocalDate(t *testing.T) {
	now := time.Date(2026, 10, 21, 7, 0, 0, 0, shanghai)
	last := time.Date(2026, 10, 20, 15, 30, 0, 0, time.UTC) // 23:30 on the 20th in UTC+8

	assert.True(t, IsTodayAvailable(now, last.UnixMilli()))
	assert.False(t, IsTodayAvailable(now.In(time.UTC), last.UnixMilli()))
}

func TestTodayBossID(t *testing.T) {
	// 2026-10-18 is a Sunday
	want := []int{9904, 9905, 9901, 9902, 9903, 9904, 9905}
	for i, id := range want {
		day := time.Date(2026, 10, 18+i, 12, 0, 0, 0, time.Local)
		require.Equal(t, time.Weekday(i), day.Weekday())
		assert.Equal(t, id, TodayBossID(day), day.Weekday().String())
	}
}

func TestEpochTime(t *testing.T) {
	sec := int64(1_760_000_000)
	assert.Equal(t, time.Unix(sec, 0), EpochTime(sec))
	assert.Equal(t, time.Unix(sec, 0), EpochTime(sec*1000))
}
