package model

import "time"

// DateLayout is the wire format for calendar dates. The fixed-width,
// zero-padded form means date strings compare correctly with plain
// string comparison, which the range filters rely on.
const DateLayout = "2006-01-02"

// FormatDate renders a time as a calendar date string.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a calendar date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
