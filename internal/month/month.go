// Package month provides the small amount of date arithmetic the event
// listing API needs: the half-open range of a calendar month, and the same
// range widened to whole weeks so a monthly grid can show the padding days
// of the adjacent months.
//
// All computation is plain time.Time arithmetic in a caller-supplied
// location; no rendering happens here.
package month

import (
	"fmt"
	"time"
)

// Parse parses a "YYYY-MM" month designator (e.g. "2026-08").
func Parse(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("month: parsing %q: %w", s, err)
	}
	return t.Year(), t.Month(), nil
}

// Range returns the half-open interval [start, end) covering the given
// month: start is midnight on the 1st, end is midnight on the 1st of the
// following month. time.Date normalizes month+1 past December, so no
// special casing is needed.
func Range(year int, m time.Month, loc *time.Location) (start, end time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start = time.Date(year, m, 1, 0, 0, 0, 0, loc)
	end = time.Date(year, m+1, 1, 0, 0, 0, 0, loc)
	return start, end
}

// Window returns the month's range widened to whole weeks: start moves back
// to the previous weekStart day (inclusive), end moves forward so the last
// week is complete. This is the interval a monthly grid displays, padding
// days from the adjacent months included.
func Window(year int, m time.Month, weekStart time.Weekday, loc *time.Location) (start, end time.Time) {
	start, end = Range(year, m, loc)

	back := (int(start.Weekday()) - int(weekStart) + 7) % 7
	start = start.AddDate(0, 0, -back)

	// end is the exclusive bound (midnight after the last displayed day), so
	// the last day of the month is end-1day. Pad until that day completes
	// its week.
	last := end.AddDate(0, 0, -1)
	forward := (int(weekStart) - int(last.Weekday()) + 6) % 7
	end = end.AddDate(0, 0, forward)

	return start, end
}
