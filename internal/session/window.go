package session

import (
	"fmt"
	"time"
)

// DefaultMinDuration is the fallback minimum session length when the
// deployment does not configure one.
const DefaultMinDuration = 15 * time.Minute

// TimeWindow is a validated [Start, End) interval. Treat values as
// immutable: derive new windows with WithEnd instead of mutating fields.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow builds a window, normalizing both instants to UTC.
// End must be after Start by at least minDuration.
func NewTimeWindow(start, end time.Time, minDuration time.Duration) (TimeWindow, error) {
	if minDuration <= 0 {
		minDuration = DefaultMinDuration
	}
	if start.IsZero() || end.IsZero() {
		return TimeWindow{}, fmt.Errorf("%w: time window requires both start and end", ErrValidation)
	}
	start, end = start.UTC(), end.UTC()
	if !end.After(start) {
		return TimeWindow{}, fmt.Errorf("%w: time window end must be after start", ErrValidation)
	}
	if end.Sub(start) < minDuration {
		return TimeWindow{}, fmt.Errorf("%w: session shorter than minimum duration %s", ErrValidation, minDuration)
	}
	return TimeWindow{Start: start, End: end}, nil
}

// Duration returns the window length.
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Overlaps reports whether two half-open intervals intersect. Windows
// that merely touch at an endpoint do not overlap.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Contains reports whether t falls inside the window, inclusive of both
// endpoints. Attendance classification uses the inclusive reading.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// WithEnd derives a new window with a replaced end, re-running the
// invariants against minDuration.
func (w TimeWindow) WithEnd(end time.Time, minDuration time.Duration) (TimeWindow, error) {
	return NewTimeWindow(w.Start, end, minDuration)
}
