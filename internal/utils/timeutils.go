package utils

import "time"

// DurationMinutes converts a pair of timestamps into minute duration.
func DurationMinutes(start, end time.Time) float64 {
	if end.Before(start) {
		start, end = end, start
	}
	return end.Sub(start).Minutes()
}

// DayOffset returns the fractional days between base and ts. Zero timestamps
// have no position on the time axis and map to offset 0.
func DayOffset(base, ts time.Time) float64 {
	if base.IsZero() || ts.IsZero() {
		return 0
	}
	return ts.Sub(base).Hours() / 24
}
