package dbtime

import "time"

// DATE columns (slot date, training date) travel as UTC midnight;
// timestamptz columns (paid_at, created_at) are stored in UTC and shown in the club timezone.

// DateOf returns the calendar date of t in loc, as UTC midnight.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, time.UTC)
}

// FirstOfMonth: the 1st of d's month.
func FirstOfMonth(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// StartOfDay: start of calendar day d in loc (as UTC), for timestamptz bounds.
func StartOfDay(d time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc).UTC()
}

// FormatLocal formats a timestamp in loc; nil -> "".
func FormatLocal(t *time.Time, loc *time.Location, layout string) string {
	if t == nil || t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(layout)
}
