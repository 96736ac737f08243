package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekNumber(t *testing.T) {
	// 2024-01-06 is the first Saturday of 2024.
	testCases := []struct {
		name string
		date time.Time
		want int64
	}{
		{"before first saturday", time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC), 1},
		{"first saturday", time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), 1},
		{"friday after first saturday", time.Date(2024, 1, 12, 23, 0, 0, 0, time.UTC), 1},
		{"second saturday", time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC), 2},
		{"mid february", time.Date(2024, 2, 14, 12, 0, 0, 0, time.UTC), 6},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, WeekNumber(tc.date))
		})
	}
}

func TestWeekNumberYearStartingOnSaturday(t *testing.T) {
	// 2022-01-01 was a Saturday, so week 2 starts on January 8th.
	assert.Equal(t, int64(1), WeekNumber(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(1), WeekNumber(time.Date(2022, 1, 7, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(2), WeekNumber(time.Date(2022, 1, 8, 0, 0, 0, 0, time.UTC)))
}
