package storage

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the fixed-width UTC layout dates are stored in.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// FormatTime renders t for storage.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

var legacyLayouts = []string{
	TimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseTime accepts the storage layout and the legacy forms older rows
// were written in.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range legacyLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse time %q", s)
}
