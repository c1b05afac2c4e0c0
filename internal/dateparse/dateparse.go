// Package dateparse turns "since" expressions into points in time for
// filtering option history.
package dateparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseSince parses a lower time bound relative to now.
//
// Supported formats:
//   - Exact dates: "2026-03-01" (midnight UTC)
//   - Timestamps: "2026-03-01T10:00:00Z"
//   - Relative hours, days, weeks, months: "12h", "7d", "2w", "1m" (a leading "-" is allowed)
//   - Day names: "monday", "tuesday", etc. (most recent past occurrence)
//   - Keywords: "today", "yesterday", "last-week", "last-month"
func ParseSince(input string) (time.Time, error) {
	return ParseSinceFrom(input, time.Now())
}

// ParseSinceFrom parses input relative to the given reference time.
func ParseSinceFrom(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(strings.ToLower(input))
	if input == "" {
		return time.Time{}, fmt.Errorf("empty since input")
	}

	if t, err := time.Parse("2006-01-02", input); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, strings.ToUpper(input)); err == nil {
		return t, nil
	}

	today := startOfDay(now)
	switch input {
	case "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	case "last-week":
		return today.AddDate(0, 0, -7), nil
	case "last-month":
		return today.AddDate(0, -1, 0), nil
	}

	// Relative offsets: Nh, Nd, Nw, Nm
	rel := strings.TrimPrefix(input, "-")
	if len(rel) >= 2 {
		suffix := rel[len(rel)-1]
		n, err := strconv.Atoi(rel[:len(rel)-1])
		if err == nil && n >= 0 {
			switch suffix {
			case 'h':
				return now.Add(-time.Duration(n) * time.Hour), nil
			case 'd':
				return now.AddDate(0, 0, -n), nil
			case 'w':
				return now.AddDate(0, 0, -7*n), nil
			case 'm':
				return now.AddDate(0, -n, 0), nil
			default:
				return time.Time{}, fmt.Errorf("unknown relative unit %q in %q (use h, d, w, or m)", string(suffix), input)
			}
		}
	}

	dayMap := map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}
	if target, ok := dayMap[input]; ok {
		daysBack := (int(now.Weekday()) - int(target) + 7) % 7
		if daysBack == 0 {
			daysBack = 7
		}
		return today.AddDate(0, 0, -daysBack), nil
	}

	return time.Time{}, fmt.Errorf("unrecognized since format: %q", input)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
