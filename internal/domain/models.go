package domain

import "time"

// Birthday is a per-chat birthday record. A user has at most one record per chat.
type Birthday struct {
	ID        int64
	UserID    int64
	ChatID    int64
	Day       int  // 1..31
	Month     int  // 1..12
	Year      *int // birth year when known, nil otherwise
	Username  string
	FullName  string
	CreatedBy int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Mention returns the @username when present, otherwise the display name.
func (b *Birthday) Mention() string {
	if b.Username != "" {
		return "@" + b.Username
	}
	return b.FullName
}

// MediaKind is the kind of media attached to an event message.
type MediaKind string

const (
	MediaPhoto     MediaKind = "photo"
	MediaVideo     MediaKind = "video"
	MediaAnimation MediaKind = "animation"
	MediaDocument  MediaKind = "document"
	MediaSticker   MediaKind = "sticker"
)

// Supported reports whether the kind can be dispatched as media.
// Unsupported kinds fall back to a text-only send.
func (k MediaKind) Supported() bool {
	switch k {
	case MediaPhoto, MediaVideo, MediaAnimation, MediaDocument, MediaSticker:
		return true
	}
	return false
}

// Event is an annual calendar event bound to a chat. The year, when set, is a
// historical annotation only; recurrence is always by (day, month). An event
// whose year has fully elapsed is auto-deactivated by the cleanup job.
type Event struct {
	ID        int64
	ChatID    int64
	Name      string
	Day       int
	Month     int
	Year      *int
	Message   string
	MediaKind MediaKind // empty when no media attached
	MediaID   string
	IsActive  bool
	CreatedBy int64
	CreatedAt time.Time
}

// EventDraft is the parsed form of an /add_event command before storage.
type EventDraft struct {
	Day     int
	Month   int
	Year    *int
	Name    string
	Message string
}

// Congratulation is one entry of the replaceable congratulation pool.
type Congratulation struct {
	ID        int64
	Text      string
	UsedCount int
}

// AllowedChat gates whether the bot operates in a chat.
type AllowedChat struct {
	ChatID   int64
	Title    string
	AddedBy  int64
	AddedAt  time.Time
	IsActive bool
}

// Stats holds aggregate counters for the owner /stats command.
type Stats struct {
	Chats           int
	Birthdays       int
	Events          int
	Congratulations int
}
