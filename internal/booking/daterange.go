package booking

import (
	"math"
	"time"
)

// DateLayout is the wire format for booking dates.
const DateLayout = "2006-01-02"

// DateRange is an inclusive range of calendar days. Both endpoints count as
// rental days: a car handed back on the End day cannot be picked up by
// someone else that same day.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange normalizes both dates to UTC midnight and validates that the
// range is strictly forward (Start < End). Zero-length and inverted ranges
// are rejected with ErrInvalidRange.
func NewDateRange(start, end time.Time) (DateRange, error) {
	start = truncateToDay(start)
	end = truncateToDay(end)

	if !start.Before(end) {
		return DateRange{}, ErrInvalidRange
	}

	return DateRange{Start: start, End: end}, nil
}

// ParseDateRange parses two YYYY-MM-DD strings into a validated DateRange.
// Unparsable dates are reported as ErrInvalidRange.
func ParseDateRange(startStr, endStr string) (DateRange, error) {
	start, err := time.ParseInLocation(DateLayout, startStr, time.UTC)
	if err != nil {
		return DateRange{}, ErrInvalidRange
	}
	end, err := time.ParseInLocation(DateLayout, endStr, time.UTC)
	if err != nil {
		return DateRange{}, ErrInvalidRange
	}
	return NewDateRange(start, end)
}

// Overlaps reports whether the two inclusive ranges share at least one
// calendar day: aStart <= bEnd AND bStart <= aEnd.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.Start.After(other.End) && !other.Start.After(r.End)
}

// Days returns the billable day count: whole days between Start and End,
// rounded up, with a floor of 1. For a validated range the ceil never fires,
// but it guards against off-by-one drift if a time-of-day ever sneaks in.
func (r DateRange) Days() int {
	days := int(math.Ceil(r.End.Sub(r.Start).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
