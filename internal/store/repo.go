package store

import (
	"context"
	"time"

	"github.com/asmeev28-png/daysbot/internal/domain"
)

// Repo defines storage operations for chats, birthdays, events, the
// congratulation pool and sent-markers.
type Repo interface {
	// Chat whitelist. RemoveChat cascades delete of the chat's birthdays and events.
	AddChat(ctx context.Context, chatID int64, title string, addedBy int64) error
	RemoveChat(ctx context.Context, chatID int64) error
	IsChatAllowed(ctx context.Context, chatID int64) (bool, error)
	ListChats(ctx context.Context) ([]domain.AllowedChat, error)

	// Birthdays. Upsert replaces the record keyed by (user_id, chat_id).
	UpsertBirthday(ctx context.Context, b *domain.Birthday) error
	GetBirthday(ctx context.Context, userID, chatID int64) (*domain.Birthday, error)
	DeleteBirthday(ctx context.Context, userID, chatID int64) error
	ListBirthdaysByChat(ctx context.Context, chatID int64) ([]domain.Birthday, error)
	CountBirthdaysByChat(ctx context.Context, chatID int64) (int, error)
	// ListBirthdaysByDate returns records matching (day, month); with
	// includeLeapDay it additionally matches (29, 2) for the Feb-28 carry.
	ListBirthdaysByDate(ctx context.Context, day, month int, includeLeapDay bool) ([]domain.Birthday, error)

	// Congratulation pool. ReplaceCongratulations wipes the pool and inserts
	// up to max non-blank texts, returning the stored count.
	ReplaceCongratulations(ctx context.Context, texts []string, addedBy int64, max int) (int, error)
	// RandomCongratulation picks one at random and increments its used_count
	// in the same transaction.
	RandomCongratulation(ctx context.Context) (*domain.Congratulation, error)

	// Events.
	AddEvent(ctx context.Context, e *domain.Event) (int64, error)
	DeleteEvent(ctx context.Context, chatID, eventID int64) error
	ToggleEvent(ctx context.Context, chatID, eventID int64) (bool, error)
	ListEventsByChat(ctx context.Context, chatID int64) ([]domain.Event, error)
	CountEventsByChat(ctx context.Context, chatID int64) (int, error)
	// ListDueEvents returns active events on (day, month) not yet marked sent
	// on sentDate.
	ListDueEvents(ctx context.Context, day, month int, sentDate time.Time) ([]domain.Event, error)

	// Sent-markers.
	MarkBirthdaySent(ctx context.Context, chatID, userID, congratulationID int64, sentDate time.Time) error
	WasBirthdaySent(ctx context.Context, chatID, userID int64, sentDate time.Time) (bool, error)
	MarkEventSent(ctx context.Context, eventID int64, sentDate time.Time) error

	// Maintenance.
	PurgeSentMarkers(ctx context.Context, before time.Time) error
	DeactivateElapsedEvents(ctx context.Context, today time.Time) (int64, error)
	Stats(ctx context.Context) (*domain.Stats, error)

	Close() error
}
