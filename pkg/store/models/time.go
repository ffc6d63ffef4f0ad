package models

import "time"

// TimeLayout is the timestamp format used in every table and API payload.
// All stored timestamps are UTC with second precision.
const TimeLayout = "2006-01-02 15:04:05"

// FormatTime renders t in the storage layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a stored timestamp back into a UTC time.Time.
func ParseTime(s string) (time.Time, error) {
	return time.ParseInLocation(TimeLayout, s, time.UTC)
}
