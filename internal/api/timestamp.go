package api

import (
	"fmt"
	"strconv"
	"time"
)

// naiveLayouts are the accepted timezone-naive ISO-8601 forms, which
// are interpreted as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTimestamp converts a date argument to epoch seconds. Integer
// input is tried first, then full RFC 3339 (a trailing "Z" is the UTC
// marker), then the naive ISO forms.
func parseTimestamp(value string) (int64, error) {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n, nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.Unix(), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.Unix(), nil
		}
	}

	return 0, fmt.Errorf("invalid date format: %s, use ISO 8601 or UNIX timestamp", value)
}
