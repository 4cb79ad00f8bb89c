// Package isotime parses the ISO-8601 date and date-time forms accepted by search filters and imports.
package isotime

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalid is returned for values that match none of the accepted layouts.
var ErrInvalid = errors.New("not an ISO-8601 date or date-time")

// Fractional seconds are accepted after any seconds field even though the layouts omit them.
var layouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04Z07:00",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Parse reads s as an ISO-8601 date ("2024-01-15") or date-time ("2024-01-15T10:30:00",
// optional fraction, optional "Z" or ±hh:mm offset, "T" or space separator).
// Values without an offset are taken as UTC; the result is always in UTC.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalid
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalid
}

// Format renders t the way API responses carry audit dates.
func Format(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
