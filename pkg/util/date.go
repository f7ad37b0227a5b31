package util

import (
	"strconv"
	"time"
)

// DateLayout is the calendar-day layout used in CSV files and query params.
const DateLayout = "2006-01-02"

// ParseTime tries RFC3339, RFC3339Nano, a bare date, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// TruncateDay returns midnight UTC of the UTC calendar day containing t.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NextDays returns n consecutive calendar days starting the day after last.
func NextDays(last time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	start := TruncateDay(last)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i+1)
	}
	return out
}

// DaysBetween counts whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(TruncateDay(b).Sub(TruncateDay(a)).Hours() / 24)
}
