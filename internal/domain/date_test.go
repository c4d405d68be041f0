package domain

import (
	"testing"
	"time"
)

func yearPtr(y int) *int { return &y }

func TestIsValidDate(t *testing.T) {
	cases := []struct {
		day, month int
		year       *int
		want       bool
	}{
		{31, 4, nil, false},
		{29, 2, yearPtr(2021), false},
		{29, 2, yearPtr(2020), true},
		{29, 2, nil, true}, // leap reference year
		{30, 2, nil, false},
		{31, 12, nil, true},
		{31, 6, nil, false},
		{0, 1, nil, false},
		{1, 13, nil, false},
		{1, 0, nil, false},
	}
	for _, c := range cases {
		if got := IsValidDate(c.day, c.month, c.year); got != c.want {
			t.Fatalf("IsValidDate(%d, %d, %v) = %v, want %v", c.day, c.month, c.year, got, c.want)
		}
	}
}

func TestIsLeapYear(t *testing.T) {
	cases := map[int]bool{
		2000: true,
		1900: false,
		2024: true,
		2023: false,
		2100: false,
		2400: true,
	}
	for year, want := range cases {
		if got := IsLeapYear(year); got != want {
			t.Fatalf("IsLeapYear(%d) = %v, want %v", year, got, want)
		}
	}
}

func TestDaysUntil(t *testing.T) {
	today := time.Date(2025, time.March, 15, 14, 30, 0, 0, time.UTC)

	if got := DaysUntil(15, 3, today); got != 0 {
		t.Fatalf("today must yield 0, got %d", got)
	}
	if got := DaysUntil(16, 3, today); got != 1 {
		t.Fatalf("tomorrow must yield 1, got %d", got)
	}
	// Already passed this year: rolls to next year.
	if got := DaysUntil(14, 3, today); got != 364 {
		t.Fatalf("yesterday's date must roll a year ahead, got %d", got)
	}
}

func TestNextOccurrence_RollsToNextYear(t *testing.T) {
	today := time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)
	next := NextOccurrence(1, 1, today)
	if next.Year() != 2026 || next.Month() != time.January || next.Day() != 1 {
		t.Fatalf("got %v, want 2026-01-01", next)
	}
}

func TestParseClock(t *testing.T) {
	if m, err := ParseClock("09:00"); err != nil || m != 9*60 {
		t.Fatalf("got %d, %v", m, err)
	}
	if m, err := ParseClock("23:59"); err != nil || m != 23*60+59 {
		t.Fatalf("got %d, %v", m, err)
	}
	for _, s := range []string{"24:00", "12:60", "9am", "morning", ""} {
		if _, err := ParseClock(s); err == nil {
			t.Fatalf("%q: expected error", s)
		}
	}
}
