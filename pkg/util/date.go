package util

import "time"

// DayLayout is the calendar-date format accepted by the provider.
const DayLayout = "2006-01-02"

// DateRange returns the window [now-days, now] in UTC.
func DateRange(now time.Time, days int) (from, to time.Time) {
	to = now.UTC()
	from = to.AddDate(0, 0, -days)
	return from, to
}

// FormatDay renders t as YYYY-MM-DD in UTC.
func FormatDay(t time.Time) string {
	return t.UTC().Format(DayLayout)
}
