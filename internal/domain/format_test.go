package domain

import (
	"strings"
	"testing"
	"time"
)

func TestFormatBirthdayList_GroupsByMonth(t *testing.T) {
	list := []Birthday{
		{UserID: 1, Day: 20, Month: 12, FullName: "Дима"},
		{UserID: 2, Day: 5, Month: 1, Username: "anna"},
		{UserID: 3, Day: 1, Month: 1, FullName: "Борис"},
	}
	out := FormatBirthdayList(list)

	janIdx := strings.Index(out, "**Январь**")
	decIdx := strings.Index(out, "**Декабрь**")
	if janIdx < 0 || decIdx < 0 || janIdx > decIdx {
		t.Fatalf("months must appear in calendar order:\n%s", out)
	}
	// Within a month, days ascend.
	boris := strings.Index(out, "1 января - Борис")
	anna := strings.Index(out, "5 января - @anna")
	if boris < 0 || anna < 0 || boris > anna {
		t.Fatalf("days within a month must ascend:\n%s", out)
	}
}

func TestFormatBirthdayList_Empty(t *testing.T) {
	out := FormatBirthdayList(nil)
	if !strings.Contains(out, "нет дней рождений") {
		t.Fatalf("unexpected empty-list text: %q", out)
	}
}

func TestFormatUpcomingBirthdays_DayWords(t *testing.T) {
	today := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
	list := []Birthday{
		{Day: 10, Month: 6, Username: "today_user"},
		{Day: 11, Month: 6, Username: "tomorrow_user"},
		{Day: 20, Month: 6, Username: "later_user"},
	}
	out := FormatUpcomingBirthdays(list, today)
	if !strings.Contains(out, "сегодня") {
		t.Fatalf("missing 'сегодня':\n%s", out)
	}
	if !strings.Contains(out, "завтра") {
		t.Fatalf("missing 'завтра':\n%s", out)
	}
	if !strings.Contains(out, "через 10 дней") {
		t.Fatalf("missing day count:\n%s", out)
	}
}

func TestFormatEventList_TypeFromYear(t *testing.T) {
	out := FormatEventList([]Event{
		{ID: 1, Name: "Ежегодное событие", Day: 1, Month: 6, IsActive: true},
		{ID: 2, Name: "Разовое событие", Day: 2, Month: 6, Year: yearPtr(2024), IsActive: false},
	})
	if !strings.Contains(out, "ежегодное") || !strings.Contains(out, "разовое") {
		t.Fatalf("event types missing:\n%s", out)
	}
	if !strings.Contains(out, "✅") || !strings.Contains(out, "❌") {
		t.Fatalf("status marks missing:\n%s", out)
	}
	if !strings.Contains(out, "2024 г.") {
		t.Fatalf("annotated year missing:\n%s", out)
	}
}

func TestFormatMonthlyDigest(t *testing.T) {
	list := []Birthday{
		{Day: 20, Month: 6, Username: "june_user"},
		{Day: 5, Month: 7, Username: "july_user"},
	}
	out := FormatMonthlyDigest(6, list)
	if !strings.Contains(out, "Именинники июня") {
		t.Fatalf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "@june_user") || strings.Contains(out, "@july_user") {
		t.Fatalf("digest must include only the given month:\n%s", out)
	}

	if got := FormatMonthlyDigest(1, list); got != "" {
		t.Fatalf("month without birthdays must yield empty digest, got %q", got)
	}
}
