package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/asmeev28-png/daysbot/internal/domain"
)

func openTestRepo(t *testing.T) *SQLiteRepo {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func yearPtr(y int) *int { return &y }

func mustAddChat(t *testing.T, repo *SQLiteRepo, chatID int64) {
	t.Helper()
	if err := repo.AddChat(context.Background(), chatID, "test chat", 1); err != nil {
		t.Fatalf("add chat: %v", err)
	}
}

func TestChatWhitelist(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	allowed, err := repo.IsChatAllowed(ctx, -100)
	if err != nil {
		t.Fatalf("IsChatAllowed: %v", err)
	}
	if allowed {
		t.Fatal("unknown chat must not be allowed")
	}

	mustAddChat(t, repo, -100)
	allowed, err = repo.IsChatAllowed(ctx, -100)
	if err != nil {
		t.Fatalf("IsChatAllowed: %v", err)
	}
	if !allowed {
		t.Fatal("added chat must be allowed")
	}

	// Re-adding the same chat updates the title instead of failing.
	if err := repo.AddChat(ctx, -100, "renamed", 1); err != nil {
		t.Fatalf("re-add chat: %v", err)
	}
	chats, err := repo.ListChats(ctx)
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if len(chats) != 1 || chats[0].Title != "renamed" {
		t.Fatalf("want one chat with updated title, got %+v", chats)
	}

	if err := repo.RemoveChat(ctx, -100); err != nil {
		t.Fatalf("RemoveChat: %v", err)
	}
	allowed, _ = repo.IsChatAllowed(ctx, -100)
	if allowed {
		t.Fatal("removed chat must not be allowed")
	}
}

func TestUpsertBirthday_UpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	b := &domain.Birthday{
		UserID: 7, ChatID: -100, Day: 14, Month: 7, Year: yearPtr(1990),
		Username: "ivan", FullName: "Иван Петров", CreatedBy: 7,
	}
	if err := repo.UpsertBirthday(ctx, b); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Same user re-states the date without a year: the year is cleared.
	b2 := &domain.Birthday{
		UserID: 7, ChatID: -100, Day: 15, Month: 8,
		Username: "ivan_new", FullName: "Иван Петров", CreatedBy: 7,
	}
	if err := repo.UpsertBirthday(ctx, b2); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := repo.GetBirthday(ctx, 7, -100)
	if err != nil {
		t.Fatalf("GetBirthday: %v", err)
	}
	if got.Day != 15 || got.Month != 8 {
		t.Fatalf("date not updated: %d.%d", got.Day, got.Month)
	}
	if got.Year != nil {
		t.Fatalf("year must be cleared, got %d", *got.Year)
	}
	if got.Username != "ivan_new" {
		t.Fatalf("username not updated: %q", got.Username)
	}

	n, err := repo.CountBirthdaysByChat(ctx, -100)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("upsert must not create a second record, got %d", n)
	}
}

func TestBirthday_PerChatIndependence(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	for _, chatID := range []int64{-100, -200} {
		b := &domain.Birthday{UserID: 7, ChatID: chatID, Day: 1, Month: 1, FullName: "X", CreatedBy: 7}
		if err := repo.UpsertBirthday(ctx, b); err != nil {
			t.Fatalf("upsert chat %d: %v", chatID, err)
		}
	}
	if err := repo.DeleteBirthday(ctx, 7, -100); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetBirthday(ctx, 7, -100); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
	if _, err := repo.GetBirthday(ctx, 7, -200); err != nil {
		t.Fatalf("record in the other chat must survive: %v", err)
	}
}

func TestListBirthdaysByDate_LeapDay(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	records := []*domain.Birthday{
		{UserID: 1, ChatID: -100, Day: 28, Month: 2, FullName: "A", CreatedBy: 1},
		{UserID: 2, ChatID: -100, Day: 29, Month: 2, FullName: "B", CreatedBy: 2},
		{UserID: 3, ChatID: -100, Day: 1, Month: 3, FullName: "C", CreatedBy: 3},
	}
	for _, b := range records {
		if err := repo.UpsertBirthday(ctx, b); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	got, err := repo.ListBirthdaysByDate(ctx, 28, 2, false)
	if err != nil {
		t.Fatalf("ListBirthdaysByDate: %v", err)
	}
	if len(got) != 1 || got[0].UserID != 1 {
		t.Fatalf("without leap-day carry want only the Feb-28 record, got %+v", got)
	}

	got, err = repo.ListBirthdaysByDate(ctx, 28, 2, true)
	if err != nil {
		t.Fatalf("ListBirthdaysByDate: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("with leap-day carry want Feb-28 and Feb-29 records, got %+v", got)
	}
}

func TestCongratulationPool(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	if _, err := repo.RandomCongratulation(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty pool must return ErrNotFound, got %v", err)
	}

	// Blank lines are skipped, the cap truncates the rest.
	texts := []string{"С днём рождения!", "", "  ", "Поздравляем!", "Ура!", "Четвёртый"}
	n, err := repo.ReplaceCongratulations(ctx, texts, 1, 3)
	if err != nil {
		t.Fatalf("ReplaceCongratulations: %v", err)
	}
	if n != 3 {
		t.Fatalf("want 3 inserted, got %d", n)
	}

	c, err := repo.RandomCongratulation(ctx)
	if err != nil {
		t.Fatalf("RandomCongratulation: %v", err)
	}
	if c.Text == "" {
		t.Fatal("empty congratulation text")
	}
	if c.UsedCount != 1 {
		t.Fatalf("used_count not incremented, got %d", c.UsedCount)
	}

	// Replacing wipes the previous pool.
	n, err = repo.ReplaceCongratulations(ctx, []string{"Новый"}, 1, 50)
	if err != nil {
		t.Fatalf("second replace: %v", err)
	}
	if n != 1 {
		t.Fatalf("want 1 inserted, got %d", n)
	}
	c, err = repo.RandomCongratulation(ctx)
	if err != nil {
		t.Fatalf("RandomCongratulation: %v", err)
	}
	if c.Text != "Новый" {
		t.Fatalf("old pool not wiped, got %q", c.Text)
	}
}

func TestSeedCongratulations_OnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	n, err := repo.SeedCongratulations(ctx, []string{"a", "b"}, 50)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n != 2 {
		t.Fatalf("want 2 seeded, got %d", n)
	}

	n, err = repo.SeedCongratulations(ctx, []string{"c"}, 50)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if n != 0 {
		t.Fatalf("non-empty pool must not be reseeded, got %d", n)
	}
}

func TestEvents_CRUDAndCascade(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	mustAddChat(t, repo, -100)

	id, err := repo.AddEvent(ctx, &domain.Event{
		ChatID: -100, Name: "Годовщина", Day: 10, Month: 6,
		Message: "Сегодня годовщина!", CreatedBy: 1,
	})
	if err != nil {
		t.Fatalf("AddEvent: %v", err)
	}
	if id == 0 {
		t.Fatal("AddEvent returned zero id")
	}

	events, err := repo.ListEventsByChat(ctx, -100)
	if err != nil {
		t.Fatalf("ListEventsByChat: %v", err)
	}
	if len(events) != 1 || !events[0].IsActive {
		t.Fatalf("want one active event, got %+v", events)
	}

	active, err := repo.ToggleEvent(ctx, -100, id)
	if err != nil {
		t.Fatalf("ToggleEvent: %v", err)
	}
	if active {
		t.Fatal("toggle must deactivate an active event")
	}
	active, err = repo.ToggleEvent(ctx, -100, id)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if !active {
		t.Fatal("second toggle must reactivate")
	}

	if _, err := repo.ToggleEvent(ctx, -100, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("toggling a missing event: want ErrNotFound, got %v", err)
	}
	if err := repo.DeleteEvent(ctx, -100, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleting a missing event: want ErrNotFound, got %v", err)
	}
	// An event cannot be touched through another chat's id.
	if err := repo.DeleteEvent(ctx, -200, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-chat delete: want ErrNotFound, got %v", err)
	}

	// Removing the chat cascades to its events.
	if err := repo.RemoveChat(ctx, -100); err != nil {
		t.Fatalf("RemoveChat: %v", err)
	}
	n, err := repo.CountEventsByChat(ctx, -100)
	if err != nil {
		t.Fatalf("CountEventsByChat: %v", err)
	}
	if n != 0 {
		t.Fatalf("events must be removed with the chat, got %d", n)
	}
}

func TestListDueEvents_SkipsSent(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	mustAddChat(t, repo, -100)

	today := time.Date(2025, time.June, 10, 10, 0, 0, 0, time.UTC)
	id, err := repo.AddEvent(ctx, &domain.Event{
		ChatID: -100, Name: "X", Day: 10, Month: 6, Message: "m", CreatedBy: 1,
	})
	if err != nil {
		t.Fatalf("AddEvent: %v", err)
	}

	due, err := repo.ListDueEvents(ctx, 10, 6, today)
	if err != nil {
		t.Fatalf("ListDueEvents: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("want one due event, got %d", len(due))
	}

	if err := repo.MarkEventSent(ctx, id, today); err != nil {
		t.Fatalf("MarkEventSent: %v", err)
	}
	due, err = repo.ListDueEvents(ctx, 10, 6, today)
	if err != nil {
		t.Fatalf("ListDueEvents: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("sent event must not be due again the same day, got %d", len(due))
	}

	// The next day the marker no longer applies.
	due, err = repo.ListDueEvents(ctx, 10, 6, today.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ListDueEvents: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("event must be due on a later date, got %d", len(due))
	}
}

func TestBirthdaySentMarkers(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	today := time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

	sent, err := repo.WasBirthdaySent(ctx, -100, 7, today)
	if err != nil {
		t.Fatalf("WasBirthdaySent: %v", err)
	}
	if sent {
		t.Fatal("no marker yet")
	}

	if err := repo.MarkBirthdaySent(ctx, -100, 7, 1, today); err != nil {
		t.Fatalf("MarkBirthdaySent: %v", err)
	}
	sent, err = repo.WasBirthdaySent(ctx, -100, 7, today)
	if err != nil {
		t.Fatalf("WasBirthdaySent: %v", err)
	}
	if !sent {
		t.Fatal("marker must be visible the same day")
	}

	// A second marker for the same (chat, user, day) violates the unique index.
	if err := repo.MarkBirthdaySent(ctx, -100, 7, 2, today); err == nil {
		t.Fatal("duplicate same-day marker must fail")
	}

	// The next day is a fresh slate.
	sent, err = repo.WasBirthdaySent(ctx, -100, 7, today.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("WasBirthdaySent: %v", err)
	}
	if sent {
		t.Fatal("marker must not carry to the next day")
	}
}

func TestPurgeSentMarkers(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	mustAddChat(t, repo, -100)

	old := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	if err := repo.MarkBirthdaySent(ctx, -100, 7, 1, old); err != nil {
		t.Fatalf("mark old: %v", err)
	}
	if err := repo.MarkBirthdaySent(ctx, -100, 8, 1, recent); err != nil {
		t.Fatalf("mark recent: %v", err)
	}
	id, err := repo.AddEvent(ctx, &domain.Event{ChatID: -100, Name: "X", Day: 1, Month: 4, Message: "m", CreatedBy: 1})
	if err != nil {
		t.Fatalf("AddEvent: %v", err)
	}
	if err := repo.MarkEventSent(ctx, id, old); err != nil {
		t.Fatalf("mark event: %v", err)
	}

	if err := repo.PurgeSentMarkers(ctx, time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("PurgeSentMarkers: %v", err)
	}

	sent, _ := repo.WasBirthdaySent(ctx, -100, 7, old)
	if sent {
		t.Fatal("old marker must be purged")
	}
	sent, _ = repo.WasBirthdaySent(ctx, -100, 8, recent)
	if !sent {
		t.Fatal("recent marker must survive")
	}
	due, err := repo.ListDueEvents(ctx, 1, 4, old)
	if err != nil {
		t.Fatalf("ListDueEvents: %v", err)
	}
	if len(due) != 1 {
		t.Fatal("purged event marker must make the event due again")
	}
}

func TestDeactivateElapsedEvents(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	mustAddChat(t, repo, -100)

	add := func(name string, day, month int, year *int) {
		t.Helper()
		_, err := repo.AddEvent(ctx, &domain.Event{
			ChatID: -100, Name: name, Day: day, Month: month, Year: year,
			Message: "m", CreatedBy: 1,
		})
		if err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}

	add("annual", 1, 1, nil)
	add("past-year", 1, 1, yearPtr(2024))
	add("earlier-this-year", 1, 3, yearPtr(2025))
	add("today", 10, 6, yearPtr(2025))
	add("future", 1, 12, yearPtr(2025))

	today := time.Date(2025, time.June, 10, 3, 0, 0, 0, time.UTC)
	n, err := repo.DeactivateElapsedEvents(ctx, today)
	if err != nil {
		t.Fatalf("DeactivateElapsedEvents: %v", err)
	}
	if n != 2 {
		t.Fatalf("want 2 deactivated, got %d", n)
	}

	events, err := repo.ListEventsByChat(ctx, -100)
	if err != nil {
		t.Fatalf("ListEventsByChat: %v", err)
	}
	for _, e := range events {
		switch e.Name {
		case "past-year", "earlier-this-year":
			if e.IsActive {
				t.Errorf("%s must be deactivated", e.Name)
			}
		default:
			if !e.IsActive {
				t.Errorf("%s must stay active", e.Name)
			}
		}
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	mustAddChat(t, repo, -100)

	if err := repo.UpsertBirthday(ctx, &domain.Birthday{
		UserID: 7, ChatID: -100, Day: 1, Month: 1, FullName: "X", CreatedBy: 7,
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := repo.AddEvent(ctx, &domain.Event{
		ChatID: -100, Name: "X", Day: 1, Month: 1, Message: "m", CreatedBy: 1,
	}); err != nil {
		t.Fatalf("AddEvent: %v", err)
	}
	if _, err := repo.ReplaceCongratulations(ctx, []string{"a", "b"}, 1, 50); err != nil {
		t.Fatalf("replace: %v", err)
	}

	s, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if s.Chats != 1 || s.Birthdays != 1 || s.Events != 1 || s.Congratulations != 2 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}
