package scheduler

import (
	"context"
	"sort"
	"time"

	"github.com/asmeev28-png/daysbot/internal/domain"
)

// ResolverStore is the slice of the repository the due-item resolver reads.
type ResolverStore interface {
	ListBirthdaysByDate(ctx context.Context, day, month int, includeLeapDay bool) ([]domain.Birthday, error)
	ListBirthdaysByChat(ctx context.Context, chatID int64) ([]domain.Birthday, error)
	ListDueEvents(ctx context.Context, day, month int, sentDate time.Time) ([]domain.Event, error)
}

// Resolver computes which birthdays and events are due on a given civil day.
type Resolver struct {
	store ResolverStore
}

func NewResolver(store ResolverStore) *Resolver {
	return &Resolver{store: store}
}

// DueBirthdays returns birthdays due on today's (month, day). On February 28
// of a non-leap year it also includes February 29 records, so leap-day
// birthdays are congratulated every year. Each record appears at most once.
func (r *Resolver) DueBirthdays(ctx context.Context, today time.Time) ([]domain.Birthday, error) {
	day, month := today.Day(), int(today.Month())
	leapCarry := month == 2 && day == 28 && !domain.IsLeapYear(today.Year())

	list, err := r.store.ListBirthdaysByDate(ctx, day, month, leapCarry)
	if err != nil {
		return nil, err
	}

	type key struct{ user, chat int64 }
	seen := make(map[key]bool, len(list))
	out := list[:0]
	for _, b := range list {
		k := key{b.UserID, b.ChatID}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, b)
	}
	return out, nil
}

// DueEvents returns active events on today's (month, day) that were not yet
// marked sent today.
func (r *Resolver) DueEvents(ctx context.Context, today time.Time) ([]domain.Event, error) {
	return r.store.ListDueEvents(ctx, today.Day(), int(today.Month()), today)
}

// UpcomingBirthdays returns the chat's birthdays ordered by days until the
// next occurrence, limited to limit records. The sort is stable, so records
// on the same day keep their storage order. A birthday today counts as 0 days.
func (r *Resolver) UpcomingBirthdays(ctx context.Context, chatID int64, limit int, today time.Time) ([]domain.Birthday, error) {
	list, err := r.store.ListBirthdaysByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		return domain.DaysUntil(list[i].Day, list[i].Month, today) <
			domain.DaysUntil(list[j].Day, list[j].Month, today)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}
