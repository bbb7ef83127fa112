package utils

import "time"

// MonthStart normalizes any time to the first day of its calendar month,
// midnight UTC. All (landlord, month) keys in the database use this
// normalized form, so comparisons are plain equality.
// This is the single source of truth for month normalization.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// NextMonth returns the normalized month immediately after the given one.
func NextMonth(month time.Time) time.Time {
	return MonthStart(month.AddDate(0, 1, 0))
}

// PrevMonth returns the normalized month immediately before the given one.
func PrevMonth(month time.Time) time.Time {
	return MonthStart(month.AddDate(0, -1, 0))
}

// MonthsBetween returns the number of whole months from a to b.
// Zero when they are the same month, negative when b precedes a.
func MonthsBetween(a, b time.Time) int {
	a, b = MonthStart(a), MonthStart(b)
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// MonthLabel formats a normalized month as a human-readable label,
// e.g. "March 2026".
func MonthLabel(month time.Time) string {
	return month.Format("January 2006")
}

// SameMonth reports whether two times fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
