package domain

import "time"

const (
	DateLayout     = "2006-01-02"
	MonthDayLayout = "01-02"
)

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// Midnight truncates t to its UTC calendar date. All pricing and
// conflict computations work on whole days; normalizing first keeps
// day iteration free of time-of-day drift.
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Midnight(b).Sub(Midnight(a)) / (24 * time.Hour))
}
