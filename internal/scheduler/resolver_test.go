package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/asmeev28-png/daysbot/internal/domain"
)

// fakeStore mimics the store's date queries, including the possibility of a
// record matching both halves of the leap-carry condition.
type fakeStore struct {
	birthdays []domain.Birthday
	events    []domain.Event
}

func (f *fakeStore) ListBirthdaysByDate(_ context.Context, day, month int, includeLeapDay bool) ([]domain.Birthday, error) {
	var res []domain.Birthday
	for _, b := range f.birthdays {
		if b.Day == day && b.Month == month {
			res = append(res, b)
		}
	}
	if includeLeapDay {
		for _, b := range f.birthdays {
			if b.Day == 29 && b.Month == 2 {
				res = append(res, b)
			}
		}
	}
	return res, nil
}

func (f *fakeStore) ListBirthdaysByChat(_ context.Context, chatID int64) ([]domain.Birthday, error) {
	var res []domain.Birthday
	for _, b := range f.birthdays {
		if b.ChatID == chatID {
			res = append(res, b)
		}
	}
	return res, nil
}

func (f *fakeStore) ListDueEvents(_ context.Context, day, month int, _ time.Time) ([]domain.Event, error) {
	var res []domain.Event
	for _, e := range f.events {
		if e.IsActive && e.Day == day && e.Month == month {
			res = append(res, e)
		}
	}
	return res, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func TestDueBirthdays_LeapCarryOnFeb28(t *testing.T) {
	res := NewResolver(&fakeStore{birthdays: []domain.Birthday{
		{UserID: 1, ChatID: 10, Day: 28, Month: 2},
		{UserID: 2, ChatID: 10, Day: 29, Month: 2},
	}})

	// 2025 is not a leap year: Feb 28 covers both records.
	due, err := res.DueBirthdays(context.Background(), day(2025, time.February, 28))
	if err != nil {
		t.Fatalf("DueBirthdays: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("want both records on Feb 28 of a non-leap year, got %d", len(due))
	}

	// 2024 is a leap year: Feb 28 covers only the Feb-28 record.
	due, err = res.DueBirthdays(context.Background(), day(2024, time.February, 28))
	if err != nil {
		t.Fatalf("DueBirthdays: %v", err)
	}
	if len(due) != 1 || due[0].UserID != 1 {
		t.Fatalf("leap year Feb 28 must match only the Feb-28 record, got %+v", due)
	}

	// Feb 29 of a leap year covers only the Feb-29 record.
	due, err = res.DueBirthdays(context.Background(), day(2024, time.February, 29))
	if err != nil {
		t.Fatalf("DueBirthdays: %v", err)
	}
	if len(due) != 1 || due[0].UserID != 2 {
		t.Fatalf("Feb 29 must match only the Feb-29 record, got %+v", due)
	}
}

func TestDueBirthdays_NoDuplicates(t *testing.T) {
	// The store may return a Feb-29 record from both halves of the carry
	// query; the resolver must still yield it once.
	res := NewResolver(&fakeStore{birthdays: []domain.Birthday{
		{UserID: 2, ChatID: 10, Day: 29, Month: 2},
		{UserID: 2, ChatID: 10, Day: 29, Month: 2},
	}})
	due, err := res.DueBirthdays(context.Background(), day(2025, time.February, 28))
	if err != nil {
		t.Fatalf("DueBirthdays: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("want a single record, got %d", len(due))
	}
}

func TestDueEvents_MatchesDate(t *testing.T) {
	res := NewResolver(&fakeStore{events: []domain.Event{
		{ID: 1, ChatID: 10, Day: 10, Month: 6, IsActive: true},
		{ID: 2, ChatID: 10, Day: 11, Month: 6, IsActive: true},
		{ID: 3, ChatID: 10, Day: 10, Month: 6, IsActive: false},
	}})
	due, err := res.DueEvents(context.Background(), day(2025, time.June, 10))
	if err != nil {
		t.Fatalf("DueEvents: %v", err)
	}
	if len(due) != 1 || due[0].ID != 1 {
		t.Fatalf("want only the active event on June 10, got %+v", due)
	}
}

func TestUpcomingBirthdays_OrderAndLimit(t *testing.T) {
	today := day(2025, time.June, 1)
	res := NewResolver(&fakeStore{birthdays: []domain.Birthday{
		{UserID: 1, ChatID: 10, Day: 5, Month: 6},   // +4 days
		{UserID: 2, ChatID: 10, Day: 1, Month: 6},   // today
		{UserID: 3, ChatID: 10, Day: 1, Month: 6},   // today, stored after user 2
		{UserID: 4, ChatID: 10, Day: 31, Month: 12}, // later
	}})

	got, err := res.UpcomingBirthdays(context.Background(), 10, 3, today)
	if err != nil {
		t.Fatalf("UpcomingBirthdays: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("limit not applied, got %d records", len(got))
	}
	// Stable order: ties keep storage order.
	if got[0].UserID != 2 || got[1].UserID != 3 || got[2].UserID != 1 {
		t.Fatalf("unexpected order: %d, %d, %d", got[0].UserID, got[1].UserID, got[2].UserID)
	}
}
