package rules

import (
	"time"
)

// dailyBosses maps weekday (Sunday first) to the daily boss id
var dailyBosses = [7]int{9904, 9905, 9901, 9902, 9903, 9904, 9905}

// msThreshold separates second-scale from millisecond-scale epoch values
const msThreshold = 1e12

// IsTodayAvailable reports whether a once-per-day action whose last
// occurrence is ts can run again. An absent or unparseable ts counts as
// never run. Dates are compared in now's location.
func IsTodayAvailable(now time.Time, ts any) bool {
	last, ok := Timestamp(ts)
	if !ok {
		return true
	}
	return !SameDay(now, last.In(now.Location()))
}

// SameDay reports whether a and b fall on the same calendar date
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// TodayBossID returns the daily boss for now's weekday
func TodayBossID(now time.Time) int {
	return dailyBosses[now.Weekday()]
}

// Timestamp converts an epoch value in seconds or milliseconds, a numeric
// string, or an RFC 3339 string into a time. Zero and empty values do not
// resolve.
func Timestamp(v any) (time.Time, bool) {
	if s, ok := v.(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t, true
		}
	}

	n, ok := Int64(v)
	if !ok || n <= 0 {
		return time.Time{}, false
	}
	return EpochTime(n), true
}

// EpochTime interprets n as milliseconds, or as seconds when it is too
// small to be a millisecond timestamp.
func EpochTime(n int64) time.Time {
	if n < msThreshold {
		return time.Unix(n, 0)
	}
	return time.UnixMilli(n)
}
