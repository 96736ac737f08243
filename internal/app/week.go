package app

import "time"

// nowFunc is swapped out in tests that care about week boundaries.
var nowFunc = time.Now

// WeekNumber numbers weeks Saturday-to-Friday within a year, starting at
// 1. Days before the year's first Saturday count as week 1. The weekly
// request quota is tracked against this number.
func WeekNumber(t time.Time) int64 {
	startOfYear := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	daysToSaturday := (int(time.Saturday) - int(startOfYear.Weekday()) + 7) % 7
	firstSaturday := startOfYear.AddDate(0, 0, daysToSaturday)

	if t.Before(firstSaturday) {
		return 1
	}

	days := int64(t.Sub(firstSaturday).Hours() / 24)
	return days/7 + 1
}
