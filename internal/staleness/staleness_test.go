package staleness_test

import (
	"testing"
	"time"

	"tubedigest/internal/staleness"
)

func TestIsStale(t *testing.T) {
	now := time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)
	window := 24 * time.Hour

	tests := []struct {
		name          string
		lastProcessed *time.Time
		want          bool
	}{
		{name: "never processed", lastProcessed: nil, want: true},
		{name: "just processed", lastProcessed: timePtr(now.Add(-time.Minute)), want: false},
		{name: "inside window", lastProcessed: timePtr(now.Add(-23 * time.Hour)), want: false},
		{name: "exactly at window", lastProcessed: timePtr(now.Add(-window)), want: true},
		{name: "beyond window", lastProcessed: timePtr(now.Add(-48 * time.Hour)), want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := staleness.IsStale(tc.lastProcessed, window, now); got != tc.want {
				t.Fatalf("IsStale() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsStaleMonotonicInElapsedTime(t *testing.T) {
	now := time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)
	window := 7 * 24 * time.Hour

	wasStale := false
	for hours := 0; hours <= 14*24; hours += 6 {
		last := now.Add(-time.Duration(hours) * time.Hour)
		stale := staleness.IsStale(&last, window, now)
		if wasStale && !stale {
			t.Fatalf("staleness regressed at %d hours elapsed", hours)
		}
		wasStale = stale
	}
	if !wasStale {
		t.Fatal("expected staleness beyond the window")
	}
}

func timePtr(value time.Time) *time.Time {
	return &value
}
