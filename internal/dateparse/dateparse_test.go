package dateparse

import (
	"testing"
	"time"
)

// Fixed reference time: Wednesday, 2026-02-18 12:00:00 UTC
var testNow = time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseSince_Exact(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2026-03-01", day(2026, 3, 1)},
		{"2025-12-31", day(2025, 12, 31)},
		{"2026-02-01T10:30:00Z", time.Date(2026, 2, 1, 10, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseSinceFrom(tt.input, testNow)
		if err != nil {
			t.Errorf("ParseSinceFrom(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseSinceFrom(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseSince_Relative(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"0d", testNow},
		{"12h", time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC)},
		{"1d", time.Date(2026, 2, 17, 12, 0, 0, 0, time.UTC)},
		{"-7d", time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)},
		{"2w", time.Date(2026, 2, 4, 12, 0, 0, 0, time.UTC)},
		{"1m", time.Date(2026, 1, 18, 12, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseSinceFrom(tt.input, testNow)
		if err != nil {
			t.Errorf("ParseSinceFrom(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseSinceFrom(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseSince_Keywords(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"today", day(2026, 2, 18)},
		{"TODAY", day(2026, 2, 18)},
		{"yesterday", day(2026, 2, 17)},
		{"last-week", day(2026, 2, 11)},
		{"last-month", day(2026, 1, 18)},
	}
	for _, tt := range tests {
		got, err := ParseSinceFrom(tt.input, testNow)
		if err != nil {
			t.Errorf("ParseSinceFrom(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseSinceFrom(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseSince_DayNames(t *testing.T) {
	// testNow is a Wednesday
	tests := []struct {
		input string
		want  time.Time
	}{
		{"monday", day(2026, 2, 16)},
		{"tuesday", day(2026, 2, 17)},
		{"wednesday", day(2026, 2, 11)},
		{"sunday", day(2026, 2, 15)},
		{"thursday", day(2026, 2, 12)},
	}
	for _, tt := range tests {
		got, err := ParseSinceFrom(tt.input, testNow)
		if err != nil {
			t.Errorf("ParseSinceFrom(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseSinceFrom(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseSince_Errors(t *testing.T) {
	for _, input := range []string{"", "   ", "soon", "5y", "2026-13-01", "-xd"} {
		if _, err := ParseSinceFrom(input, testNow); err == nil {
			t.Errorf("ParseSinceFrom(%q): expected error", input)
		}
	}
}
