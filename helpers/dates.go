package helpers

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the calendar-day layout used across the watcher.
// The reservation API reports dates in the same form, so dates can
// be compared as plain strings once they pass validation.
const DateLayout = "2006-01-02"

// SplitCSV splits a comma-separated list, trimming whitespace and dropping empty parts.
func SplitCSV(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseDateList parses a comma-separated list of calendar dates, validates each
// against DateLayout, and returns them deduplicated and sorted.
func ParseDateList(s string) ([]string, error) {
	parts := SplitCSV(s)
	if len(parts) == 0 {
		return nil, fmt.Errorf("no dates given")
	}

	seen := make(map[string]struct{}, len(parts))
	dates := make([]string, 0, len(parts))
	for _, p := range parts {
		if _, err := time.Parse(DateLayout, p); err != nil {
			return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", p)
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		dates = append(dates, p)
	}
	sort.Strings(dates)
	return dates, nil
}
