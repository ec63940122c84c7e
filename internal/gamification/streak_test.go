package gamification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCurrentStreak(t *testing.T) {
	now := day("2026-08-26").Add(15 * time.Hour)

	tests := []struct {
		name string
		days []time.Time
		want int
	}{
		{"no completions", nil, 0},
		{"today only", []time.Time{day("2026-08-26")}, 1},
		{"three in a row ending today", []time.Time{
			day("2026-08-24"), day("2026-08-25"), day("2026-08-26"),
		}, 3},
		{"streak ended yesterday still counts", []time.Time{
			day("2026-08-24"), day("2026-08-25"),
		}, 2},
		{"gap breaks the streak", []time.Time{
			day("2026-08-22"), day("2026-08-23"), day("2026-08-25"), day("2026-08-26"),
		}, 2},
		{"stale streak is zero", []time.Time{
			day("2026-08-20"), day("2026-08-21"),
		}, 0},
		{"duplicate days count once", []time.Time{
			day("2026-08-26"), day("2026-08-26"), day("2026-08-25"),
		}, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CurrentStreak(tc.days, now))
		})
	}
}

func TestCurrentStreakSevenDays(t *testing.T) {
	now := day("2026-08-26").Add(9 * time.Hour)
	var days []time.Time
	for i := 0; i < 7; i++ {
		days = append(days, day("2026-08-26").AddDate(0, 0, -i))
	}
	assert.Equal(t, 7, CurrentStreak(days, now))
}
