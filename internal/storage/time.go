package storage

import "time"

// timeLayout is the canonical stored form: RFC 3339 UTC with fixed millisecond
// precision, so every written timestamp has the same width.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// parseLayouts covers rows written by earlier versions of the app, which used
// ISO 8601 with microsecond precision and an explicit +00:00 offset.
var parseLayouts = []string{
	timeLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a stored timestamp. Dates that fail to parse fall back to
// the given time rather than failing the operation.
func parseTime(s string, fallback time.Time) time.Time {
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return fallback
}

// parseTimeStrict is parseTime without the fallback, for paths that skip
// malformed rows instead (review history listings).
func parseTimeStrict(s string) (time.Time, bool) {
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
