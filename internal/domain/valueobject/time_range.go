package valueobject

import (
	"errors"
	"time"
)

// TimeRange is an immutable start/end window used for history queries
// (Value Object).
type TimeRange struct {
	start time.Time
	end   time.Time
}

// NewTimeRange builds a TimeRange with validation.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() {
		return TimeRange{}, errors.New("start and end times cannot be zero")
	}
	if start.After(end) {
		return TimeRange{}, errors.New("start time must be before end time")
	}

	return TimeRange{start: start, end: end}, nil
}

// NewTimeRangeFromDuration builds a range covering the given duration back
// from now.
func NewTimeRangeFromDuration(duration time.Duration) (TimeRange, error) {
	if duration <= 0 {
		return TimeRange{}, errors.New("duration must be positive")
	}

	now := time.Now()
	return TimeRange{start: now.Add(-duration), end: now}, nil
}

// Start returns the range start.
func (tr TimeRange) Start() time.Time {
	return tr.start
}

// End returns the range end.
func (tr TimeRange) End() time.Time {
	return tr.end
}

// Duration returns the range length.
func (tr TimeRange) Duration() time.Duration {
	return tr.end.Sub(tr.start)
}

// Contains reports whether t falls inside the range, boundaries included.
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.start) && !t.After(tr.end)
}
