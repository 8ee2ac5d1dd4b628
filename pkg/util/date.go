package util

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date layout used by providers and requests.
const DateLayout = "2006-01-02"

var zonedLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04Z07:00",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseEventTime normalizes provider timestamps to UTC. A date-only value is
// UTC midnight, a trailing Z is dropped and values without an offset are UTC.
func ParseEventTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty datetime")
	}
	if isDateOnly(s) {
		return time.ParseInLocation(DateLayout, s, time.UTC)
	}

	s = strings.ReplaceAll(s, "Z", "")
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", s)
}

// ParseDate parses a YYYY-MM-DD value as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders the calendar date of t in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// StartOfDay truncates t to UTC midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last microsecond of t's UTC calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Microsecond)
}

func isDateOnly(s string) bool {
	return len(s) == 10 && s[4] == '-' && s[7] == '-'
}
