package leave

import (
	"fmt"
	"time"
)

// =============================================================================
// CLOCK - Wall-clock time of day ("HH:MM")
// =============================================================================

// Clock is a time of day in minutes since midnight.
type Clock int

// ParseClock parses "HH:MM".
func ParseClock(s string) (Clock, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, &ValidationError{Field: "time", Message: fmt.Sprintf("invalid time %q (use HH:MM)", s)}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, &ValidationError{Field: "time", Message: fmt.Sprintf("invalid time %q (use HH:MM)", s)}
	}
	return Clock(h*60 + m), nil
}

// MustClock parses "HH:MM" and panics on failure. For configuration literals.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60) }

func (c Clock) Before(other Clock) bool { return c < other }
func (c Clock) After(other Clock) bool  { return c > other }

// MinutesUntil returns the minutes from c to other (negative when other is
// earlier).
func (c Clock) MinutesUntil(other Clock) int { return int(other) - int(c) }

// =============================================================================
// DATES AND HOLIDAYS
// =============================================================================

const dateLayout = "2006-01-02"

// ParseDate parses an ISO calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Message: fmt.Sprintf("invalid date %q (use YYYY-MM-DD)", s)}
	}
	return t, nil
}

// FormatDate renders a date in ISO form.
func FormatDate(t time.Time) string { return t.Format(dateLayout) }

// HolidaySet is a lookup set of non-working dates keyed by ISO date.
type HolidaySet map[string]struct{}

// NewHolidaySet builds a set from Holiday rows.
func NewHolidaySet(holidays []Holiday) HolidaySet {
	set := make(HolidaySet, len(holidays))
	for _, h := range holidays {
		set[FormatDate(h.Date)] = struct{}{}
	}
	return set
}

// Contains reports whether t falls on a holiday.
func (h HolidaySet) Contains(t time.Time) bool {
	_, ok := h[t.Format(dateLayout)]
	return ok
}

// IsWorkday reports whether t is a weekday and not a holiday.
func IsWorkday(t time.Time, holidays HolidaySet) bool {
	wd := t.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !holidays.Contains(t)
}

// NextWorkday returns the first working date strictly after t, skipping
// weekends and holidays.
func NextWorkday(t time.Time, holidays HolidaySet) time.Time {
	next := t.AddDate(0, 0, 1)
	for !IsWorkday(next, holidays) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
