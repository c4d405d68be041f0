package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Month names in the nominative case, for headers.
var monthsNominative = [12]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

// Month names in the genitive case, for rendering dates.
var monthsGenitive = [12]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// MonthGenitive returns the genitive Russian name for a 1-based month.
func MonthGenitive(month int) string {
	return monthsGenitive[month-1]
}

// FormatBirthdayList renders all birthdays of a chat grouped by month.
func FormatBirthdayList(birthdays []Birthday) string {
	if len(birthdays) == 0 {
		return "📅 В этом чате пока нет дней рождений."
	}

	byMonth := make(map[int][]Birthday)
	for _, b := range birthdays {
		byMonth[b.Month] = append(byMonth[b.Month], b)
	}
	months := make([]int, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Ints(months)

	var sb strings.Builder
	sb.WriteString("📅 Дни рождения в этом чате:\n\n")
	for _, m := range months {
		sb.WriteString(fmt.Sprintf("**%s**:\n", monthsNominative[m-1]))
		list := byMonth[m]
		sort.SliceStable(list, func(i, j int) bool { return list[i].Day < list[j].Day })
		for i := range list {
			sb.WriteString(fmt.Sprintf("• %d %s - %s\n", list[i].Day, monthsGenitive[m-1], list[i].Mention()))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatUpcomingBirthdays renders the next birthdays with a human day count.
func FormatUpcomingBirthdays(birthdays []Birthday, today time.Time) string {
	if len(birthdays) == 0 {
		return "🎂 Ближайших дней рождений нет."
	}

	var sb strings.Builder
	sb.WriteString("🎂 Ближайшие дни рождения:\n\n")
	for i := range birthdays {
		b := &birthdays[i]
		days := DaysUntil(b.Day, b.Month, today)
		var when string
		switch days {
		case 0:
			when = "🎉 сегодня!"
		case 1:
			when = "завтра"
		default:
			when = fmt.Sprintf("через %d дней", days)
		}
		sb.WriteString(fmt.Sprintf("%d. %s - %d %s (%s)\n", i+1, b.Mention(), b.Day, monthsGenitive[b.Month-1], when))
	}
	return sb.String()
}

// FormatEventList renders a chat's events with their status and type.
func FormatEventList(events []Event) string {
	if len(events) == 0 {
		return "📅 В этом чате пока нет событий."
	}

	var sb strings.Builder
	sb.WriteString("📅 События в этом чате:\n\n")
	for i := range events {
		e := &events[i]
		status := "✅"
		if !e.IsActive {
			status = "❌"
		}
		date := fmt.Sprintf("%d %s", e.Day, monthsGenitive[e.Month-1])
		kind := "ежегодное"
		if e.Year != nil {
			date += fmt.Sprintf(" %d г.", *e.Year)
			kind = "разовое"
		}
		sb.WriteString(fmt.Sprintf("%s **%s** - %s\n", status, date, e.Name))
		sb.WriteString(fmt.Sprintf("   Тип: %s, ID: %d\n\n", kind, e.ID))
	}
	return sb.String()
}

// FormatUpcomingEvents renders the next active events of a chat ordered by
// days until the next occurrence, limited to three.
func FormatUpcomingEvents(events []Event, today time.Time) string {
	var active []Event
	for _, e := range events {
		if e.IsActive {
			active = append(active, e)
		}
	}
	if len(active) == 0 {
		return "📅 Ближайших событий нет."
	}
	sort.SliceStable(active, func(i, j int) bool {
		return DaysUntil(active[i].Day, active[i].Month, today) <
			DaysUntil(active[j].Day, active[j].Month, today)
	})
	if len(active) > 3 {
		active = active[:3]
	}

	var sb strings.Builder
	sb.WriteString("📅 Ближайшие события:\n\n")
	for i := range active {
		e := &active[i]
		days := DaysUntil(e.Day, e.Month, today)
		var when string
		switch days {
		case 0:
			when = "сегодня"
		case 1:
			when = "завтра"
		default:
			when = fmt.Sprintf("через %d дней", days)
		}
		sb.WriteString(fmt.Sprintf("• %d %s - %s (%s)\n", e.Day, monthsGenitive[e.Month-1], e.Name, when))
	}
	return sb.String()
}

// FormatMonthlyDigest renders the first-of-month birthday reminder for a chat.
// Returns "" when the month has no birthdays.
func FormatMonthlyDigest(month int, birthdays []Birthday) string {
	var inMonth []Birthday
	for _, b := range birthdays {
		if b.Month == month {
			inMonth = append(inMonth, b)
		}
	}
	if len(inMonth) == 0 {
		return ""
	}
	sort.SliceStable(inMonth, func(i, j int) bool { return inMonth[i].Day < inMonth[j].Day })

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 Именинники %s:\n\n", monthsGenitive[month-1]))
	for i := range inMonth {
		sb.WriteString(fmt.Sprintf("• %d %s - %s\n", inMonth[i].Day, monthsGenitive[month-1], inMonth[i].Mention()))
	}
	sb.WriteString("\nНе забудьте поздравить! 🎉")
	return sb.String()
}

// BirthdayGreeting composes the congratulation sent on a user's birthday.
func BirthdayGreeting(mention, text string) string {
	return fmt.Sprintf("🎉 Поздравляем %s с днём рождения!\n\n%s", mention, text)
}

// EventMessage composes the message sent when an event fires.
func EventMessage(e *Event) string {
	return fmt.Sprintf("🎉 %s\n\n%s", e.Name, e.Message)
}
