package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// leapReferenceYear is used to validate (day, month) pairs without a year,
// so that February 29 is accepted as a valid birthday.
const leapReferenceYear = 2024

// IsLeapYear reports whether year is a Gregorian leap year.
func IsLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// IsValidDate reports whether day/month form a legal calendar date.
// When year is nil the check is performed against a leap reference year.
func IsValidDate(day, month int, year *int) bool {
	y := leapReferenceYear
	if year != nil {
		y = *year
	}
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	t := time.Date(y, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Day() == day && int(t.Month()) == month
}

// NextOccurrence returns the next calendar date with the given (day, month)
// at or after today. A date earlier in the year rolls over to next year.
func NextOccurrence(day, month int, today time.Time) time.Time {
	next := time.Date(today.Year(), time.Month(month), day, 0, 0, 0, 0, today.Location())
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	if next.Before(midnight) {
		next = time.Date(today.Year()+1, time.Month(month), day, 0, 0, 0, 0, today.Location())
	}
	return next
}

// DaysUntil returns the whole days from today until the next occurrence of
// (day, month). A date matching today yields 0.
func DaysUntil(day, month int, today time.Time) int {
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	return int(NextOccurrence(day, month, today).Sub(midnight).Hours() / 24)
}

var clockRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// ParseClock parses "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	if h > 23 || min > 59 {
		return 0, errors.New("time out of range")
	}
	return h*60 + min, nil
}
