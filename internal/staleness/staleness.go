// Package staleness decides whether aggregation output is old enough to
// regenerate.
package staleness

import "time"

// IsStale reports whether work last produced at lastProcessed should run
// again given the freshness window. A nil lastProcessed means the work has
// never run and is always stale.
func IsStale(lastProcessed *time.Time, window time.Duration, now time.Time) bool {
	if lastProcessed == nil {
		return true
	}
	return now.Sub(*lastProcessed) >= window
}
