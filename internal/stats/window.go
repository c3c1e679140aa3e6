package stats

import (
	"fmt"
	"time"
)

// Window is a calendar period used to bucket Friday donations.
type Window string

const (
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
	WindowYear  Window = "year"
)

// Bounds returns the half-open date range [from, to) of the window that
// contains now. Weeks follow ISO 8601 and start on Monday. The calendar date
// is taken in now's location; bounds are midnight UTC dates so they compare
// directly with stored donation dates.
func Bounds(w Window, now time.Time) (from, to time.Time, err error) {
	y, m, d := now.Date()
	switch w {
	case WindowWeek:
		offset := (int(now.Weekday()) + 6) % 7
		from = time.Date(y, m, d-offset, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 0, 7), nil
	case WindowMonth:
		from = time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0), nil
	case WindowYear:
		from = time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown window %q", w)
	}
}
