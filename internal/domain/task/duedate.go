package task

import (
	"fmt"
	"strings"
	"time"
)

var dueDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

const (
	maxDueDatePast   = -1 // years
	maxDueDateFuture = 5  // years
)

// ParseDueDate validates a model supplied due date.
//
// Zoned timestamps keep their instant, zoneless ones are read as UTC, and a
// bare date means the end of that day in UTC. Dates more than a year in the
// past or five years in the future are rejected.
func ParseDueDate(raw string, now time.Time) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parsed, err := parseDueDate(raw)
	if err != nil {
		return nil, err
	}

	parsed = parsed.UTC()
	if parsed.Before(now.AddDate(maxDueDatePast, 0, 0)) || parsed.After(now.AddDate(maxDueDateFuture, 0, 0)) {
		return nil, fmt.Errorf("due date %s out of accepted range", parsed.Format(time.RFC3339))
	}
	return &parsed, nil
}

func parseDueDate(raw string) (time.Time, error) {
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	if day, err := time.Parse(time.DateOnly, raw); err == nil {
		return day.Add(24*time.Hour - time.Second), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized due date %q", raw)
}
