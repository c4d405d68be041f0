package scheduler

import (
	"testing"
	"time"
)

var msk = time.FixedZone("UTC+3", 3*3600)

func TestNextDaily(t *testing.T) {
	next := nextDaily(9 * 60) // 09:00

	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			"before trigger fires today",
			time.Date(2025, time.June, 10, 8, 30, 0, 0, msk),
			time.Date(2025, time.June, 10, 9, 0, 0, 0, msk),
		},
		{
			"exactly at trigger rolls to tomorrow",
			time.Date(2025, time.June, 10, 9, 0, 0, 0, msk),
			time.Date(2025, time.June, 11, 9, 0, 0, 0, msk),
		},
		{
			"after trigger rolls to tomorrow",
			time.Date(2025, time.June, 10, 23, 59, 0, 0, msk),
			time.Date(2025, time.June, 11, 9, 0, 0, 0, msk),
		},
		{
			"rolls over month boundary",
			time.Date(2025, time.June, 30, 10, 0, 0, 0, msk),
			time.Date(2025, time.July, 1, 9, 0, 0, 0, msk),
		},
	}
	for _, tc := range cases {
		if got := next(tc.now); !got.Equal(tc.want) {
			t.Errorf("%s: nextDaily(%v) = %v, want %v", tc.name, tc.now, got, tc.want)
		}
	}
}

func TestNextDaily_Midnight(t *testing.T) {
	next := nextDaily(0)
	now := time.Date(2025, time.June, 10, 0, 0, 0, 0, msk)
	want := time.Date(2025, time.June, 11, 0, 0, 0, 0, msk)
	if got := next(now); !got.Equal(want) {
		t.Fatalf("nextDaily(0) at midnight = %v, want %v", got, want)
	}
}

func TestNextMonthStart(t *testing.T) {
	cases := []struct {
		now  time.Time
		want time.Time
	}{
		{
			time.Date(2025, time.June, 10, 12, 0, 0, 0, msk),
			time.Date(2025, time.July, 1, 0, 0, 0, 0, msk),
		},
		{
			// December rolls into January of the next year.
			time.Date(2025, time.December, 31, 23, 0, 0, 0, msk),
			time.Date(2026, time.January, 1, 0, 0, 0, 0, msk),
		},
		{
			// Midnight on the 1st schedules the next month, never today.
			time.Date(2025, time.June, 1, 0, 0, 0, 0, msk),
			time.Date(2025, time.July, 1, 0, 0, 0, 0, msk),
		},
	}
	for _, tc := range cases {
		if got := nextMonthStart(tc.now); !got.Equal(tc.want) {
			t.Errorf("nextMonthStart(%v) = %v, want %v", tc.now, got, tc.want)
		}
	}
}
