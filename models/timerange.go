package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration bounds for customer reservations. The inventory service enforces
// its own, wider bounds on slots.
const (
	ReservationMinDuration = 60 * time.Minute
	ReservationMaxDuration = 240 * time.Minute
)

// TimeRange is a half-open interval [Start, End): two ranges that only touch
// at an endpoint do not overlap.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeRange validates the interval on construction, so zero-length or
// negative intervals never reach downstream checks.
func NewTimeRange(start, end time.Time, minDur, maxDur time.Duration) (TimeRange, error) {
	if start.IsZero() || end.IsZero() {
		return TimeRange{}, NewValidationError("time_range", "start and end are required")
	}
	if !end.After(start) {
		return TimeRange{}, NewValidationError("time_range", "end must be after start")
	}
	d := end.Sub(start)
	if d < minDur || d > maxDur {
		return TimeRange{}, NewValidationError("time_range",
			fmt.Sprintf("duration must be between %d and %d minutes", int(minDur.Minutes()), int(maxDur.Minutes())))
	}
	return TimeRange{Start: start, End: end}, nil
}

// Overlaps reports whether two intervals on the same date conflict.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// DurationMinutes returns the interval length in whole minutes.
func (r TimeRange) DurationMinutes() int {
	return int(r.End.Sub(r.Start).Minutes())
}

// WithinOperatingHours checks the interval against opening/closing clock
// times in "HH:MM" form. When closing < opening the establishment runs
// overnight and the interval is valid if it starts after opening or ends
// before closing.
func (r TimeRange) WithinOperatingHours(opening, closing string) (bool, error) {
	open, err := ParseClock(opening)
	if err != nil {
		return false, err
	}
	closed, err := ParseClock(closing)
	if err != nil {
		return false, err
	}
	start := minutesOfDay(r.Start)
	end := minutesOfDay(r.End)
	if closed < open {
		return start >= open || end <= closed, nil
	}
	return start >= open && end <= closed, nil
}

// DateLayout is the wire format for booking dates.
const DateLayout = "2006-01-02"

// NewTimeRangeOn builds a validated interval from a "YYYY-MM-DD" date and
// "HH:MM" clock bounds, the shape both services accept on the wire.
func NewTimeRangeOn(date, startClock, endClock string, minDur, maxDur time.Duration) (TimeRange, error) {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return TimeRange{}, NewValidationError("date", fmt.Sprintf("invalid date %q", date))
	}
	sm, err := ParseClock(startClock)
	if err != nil {
		return TimeRange{}, err
	}
	em, err := ParseClock(endClock)
	if err != nil {
		return TimeRange{}, err
	}
	return NewTimeRange(
		day.Add(time.Duration(sm)*time.Minute),
		day.Add(time.Duration(em)*time.Minute),
		minDur, maxDur,
	)
}

// ParseClock converts an "HH:MM" clock string to minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, NewValidationError("clock", fmt.Sprintf("invalid clock time %q", s))
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, NewValidationError("clock", fmt.Sprintf("invalid hour in %q", s))
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, NewValidationError("clock", fmt.Sprintf("invalid minute in %q", s))
	}
	return h*60 + m, nil
}

func minutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
