package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layouts accepted for textual timestamps, tried in order. Layouts without a
// zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02-01-2006 15:04:05",
	"2006-01-02",
}

// epochMillisThreshold separates epoch seconds from epoch milliseconds: any
// value at or above it is read as milliseconds (year 2001 in ms, year 33658 in s).
const epochMillisThreshold = 1_000_000_000_000

// ParseTimestamp reads the timestamp formats found in SMS exports. An empty
// string yields the zero time.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}

	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return fromEpoch(n), nil
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil && !strings.ContainsAny(value, "-:/") {
		return fromEpoch(int64(f)), nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

func fromEpoch(n int64) time.Time {
	if n >= epochMillisThreshold {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}
