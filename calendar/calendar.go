// Package calendar provides the Monday-Friday business-day arithmetic used by
// the forecasting pipeline. Weekends are the only non-business days; there
// is no holiday awareness.
package calendar

import "time"

// DateLayout is the canonical date format for input and output tables.
const DateLayout = "2006-01-02"

// Date returns midnight UTC for the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the clock part of t and moves it to UTC, keeping the
// calendar day t has in its own location.
func Truncate(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string into a UTC date.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.UTC)
}

// IsBusinessDay reports whether t falls on Monday through Friday.
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// DayOfWeek returns the weekday index with Monday=0 and Sunday=6.
func DayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// IsMonthEnd reports whether t is the last calendar day of its month.
func IsMonthEnd(t time.Time) bool {
	return t.AddDate(0, 0, 1).Month() != t.Month()
}

// NextBusinessDays returns the n business days strictly after the given date,
// in ascending order. It returns nil when n <= 0.
func NextBusinessDays(after time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	days := make([]time.Time, 0, n)
	d := Truncate(after)
	for len(days) < n {
		d = d.AddDate(0, 0, 1)
		if IsBusinessDay(d) {
			days = append(days, d)
		}
	}
	return days
}
