package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/asmeev28-png/daysbot/internal/domain"
	"github.com/asmeev28-png/daysbot/internal/store"
)

func userFullName(u *tgbotapi.User) string {
	if u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.FirstName
}

func renderDate(day, month int, year *int) string {
	s := fmt.Sprintf("%d %s", day, domain.MonthGenitive(month))
	if year != nil {
		s += fmt.Sprintf(" %d г.", *year)
	}
	return s
}

// ---- birthday registration ----

// handleBirthdayMessage stores a birthday from free text like "мой др 28.06.1998".
func (r *Router) handleBirthdayMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	pd, err := domain.ParseBirthdayExpression(msg.Text, r.localNow())
	switch {
	case errors.Is(err, domain.ErrInvalidDate):
		r.reply(chatID, textInvalidDate)
		return
	case err != nil:
		r.reply(chatID, textBirthdayHint)
		return
	}
	r.saveBirthday(ctx, chatID, msg.From, pd, msg.From.ID)
}

func (r *Router) saveBirthday(ctx context.Context, chatID int64, user *tgbotapi.User, pd domain.ParsedDate, createdBy int64) {
	_, err := r.repo.GetBirthday(ctx, user.ID, chatID)
	if errors.Is(err, store.ErrNotFound) {
		n, cerr := r.repo.CountBirthdaysByChat(ctx, chatID)
		if cerr != nil {
			r.log.Error("birthday count failed", zap.Error(cerr))
			r.reply(chatID, textInternalError)
			return
		}
		if n >= r.cfg.MaxBirthdaysPerChat {
			r.reply(chatID, textBirthdayLimit)
			return
		}
	} else if err != nil {
		r.log.Error("birthday lookup failed", zap.Error(err))
		r.reply(chatID, textInternalError)
		return
	}

	b := &domain.Birthday{
		UserID:    user.ID,
		ChatID:    chatID,
		Day:       pd.Day,
		Month:     pd.Month,
		Year:      pd.Year,
		Username:  user.UserName,
		FullName:  userFullName(user),
		CreatedBy: createdBy,
	}
	if err := r.repo.UpsertBirthday(ctx, b); err != nil {
		r.log.Error("birthday upsert failed", zap.Error(err))
		r.reply(chatID, textInternalError)
		return
	}
	r.reply(chatID, fmt.Sprintf("✅ Запомнил: %s — %s 🎂", b.Mention(), renderDate(pd.Day, pd.Month, pd.Year)))
}

func (r *Router) handleMyBirthday(ctx context.Context, msg *tgbotapi.Message) {
	b, err := r.repo.GetBirthday(ctx, msg.From.ID, msg.Chat.ID)
	if errors.Is(err, store.ErrNotFound) {
		r.reply(msg.Chat.ID, textBirthdayNone)
		return
	}
	if err != nil {
		r.log.Error("birthday lookup failed", zap.Error(err))
		r.reply(msg.Chat.ID, textInternalError)
		return
	}
	r.reply(msg.Chat.ID, fmt.Sprintf("🎂 Ваш день рождения: %s", renderDate(b.Day, b.Month, b.Year)))
}

func (r *Router) handleBirthList(ctx context.Context, msg *tgbotapi.Message) {
	list, err := r.repo.ListBirthdaysByChat(ctx, msg.Chat.ID)
	if err != nil {
		r.log.Error("birthday list failed", zap.Error(err))
		r.reply(msg.Chat.ID, textInternalError)
		return
	}
	r.reply(msg.Chat.ID, domain.FormatBirthdayList(list))
}

func (r *Router) handleWhoIsNext(ctx context.Context, msg *tgbotapi.Message) {
	today := r.localNow()
	list, err := r.res.UpcomingBirthdays(ctx, msg.Chat.ID, 3, today)
	if err != nil {
		r.log.Error("upcoming birthdays failed", zap.Error(err))
		r.reply(msg.Chat.ID, textInternalError)
		return
	}
	r.reply(msg.Chat.ID, domain.FormatUpcomingBirthdays(list, today))
}

// ---- user lookup ----

// findBirthday resolves a user query against the chat's records.
func (r *Router) findBirthday(ctx context.Context, chatID int64, q domain.UserQuery) (*domain.Birthday, error) {
	if q.Kind == domain.QueryByID {
		id, err := strconv.ParseInt(q.Value, 10, 64)
		if err != nil {
			return nil, store.ErrNotFound
		}
		return r.repo.GetBirthday(ctx, id, chatID)
	}
	list, err := r.repo.ListBirthdaysByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		b := &list[i]
		switch q.Kind {
		case domain.QueryByUsername:
			if strings.ToLower(b.Username) == q.Value {
				return b, nil
			}
		case domain.QueryByName:
			if strings.Contains(strings.ToLower(b.FullName), strings.ToLower(q.Value)) {
				return b, nil
			}
		}
	}
	return nil, store.ErrNotFound
}

func (r *Router) handleSearch(ctx context.Context, msg *tgbotapi.Message) {
	q, err := domain.ParseUserQuery(msg.Text)
	if err != nil {
		r.reply(msg.Chat.ID, textDrUsage)
		return
	}
	b, err := r.findBirthday(ctx, msg.Chat.ID, q)
	if errors.Is(err, store.ErrNotFound) {
		r.reply(msg.Chat.ID, textNotFound)
		return
	}
	if err != nil {
		r.log.Error("birthday search failed", zap.Error(err))
		r.reply(msg.Chat.ID, textInternalError)
		return
	}
	r.reply(msg.Chat.ID, fmt.Sprintf("🎂 %s — %s", b.Mention(), renderDate(b.Day, b.Month, b.Year)))
}

// ---- admin commands ----

// handleAdminAdd registers a birthday on behalf of the user being replied to.
func (r *Router) handleAdminAdd(ctx context.Context, msg *tgbotapi.Message) {
	target := msg.ReplyToMessage
	if target == nil || target.From == nil {
		r.reply(msg.Chat.ID, textAddUsage)
		return
	}
	pd, err := domain.ParseBirthdayExpression(msg.CommandArguments(), r.localNow())
	switch {
	case errors.Is(err, domain.ErrInvalidDate):
		r.reply(msg.Chat.ID, textInvalidDate)
		return
	case err != nil:
		r.reply(msg.Chat.ID, textAddUsage)
		return
	}
	r.saveBirthday(ctx, msg.Chat.ID, target.From, pd, msg.From.ID)
}

func (r *Router) handleAdminDelete(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	var userID int64
	if reply := msg.ReplyToMessage; reply != nil && reply.From != nil {
		userID = reply.From.ID
	} else {
		q, err := domain.ParseUserQuery(msg.Text)
		if err != nil {
			r.reply(chatID, textDrUsage)
			return
		}
		b, err := r.findBirthday(ctx, chatID, q)
		if errors.Is(err, store.ErrNotFound) {
			r.reply(chatID, textNotFound)
			return
		}
		if err != nil {
			r.log.Error("birthday search failed", zap.Error(err))
			r.reply(chatID, textInternalError)
			return
		}
		userID = b.UserID
	}

	if err := r.repo.DeleteBirthday(ctx, userID, chatID); err != nil {
		r.log.Error("birthday delete failed", zap.Error(err))
		r.reply(chatID, textInternalError)
		return
	}
	r.reply(chatID, textBirthdayGone)
}

// handleForceCongratulate sends a congratulation immediately and records the
// sent-marker, so the scheduled morning run will not repeat it.
func (r *Router) handleForceCongratulate(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	var b *domain.Birthday
	var err error
	if reply := msg.ReplyToMessage; reply != nil && reply.From != nil {
		b, err = r.repo.GetBirthday(ctx, reply.From.ID, chatID)
	} else {
		var q domain.UserQuery
		q, err = domain.ParseUserQuery(msg.Text)
		if err != nil {
			r.reply(chatID, textDrUsage)
			return
		}
		b, err = r.findBirthday(ctx, chatID, q)
	}
	if errors.Is(err, store.ErrNotFound) {
		r.reply(chatID, textNotFound)
		return
	}
	if err != nil {
		r.log.Error("birthday search failed", zap.Error(err))
		r.reply(chatID, textInternalError)
		return
	}

	c, err := r.repo.RandomCongratulation(ctx)
	if err != nil {
		r.log.Warn("no congratulation available", zap.Error(err))
		r.reply(chatID, textInternalError)
		return
	}
	if err := r.sender.SendText(chatID, domain.BirthdayGreeting(b.Mention(), c.Text)); err != nil {
		r.log.Error("send failed", zap.Error(err))
		return
	}
	if err := r.repo.MarkBirthdaySent(ctx, chatID, b.UserID, c.ID, r.localNow()); err != nil {
		r.log.Error("sent-marker write failed", zap.Error(err))
	}
}

// ---- events ----

func mediaFromMessage(msg *tgbotapi.Message) (domain.MediaKind, string) {
	switch {
	case len(msg.Photo) > 0:
		return domain.MediaPhoto, msg.Photo[len(msg.Photo)-1].FileID
	case msg.Video != nil:
		return domain.MediaVideo, msg.Video.FileID
	case msg.Animation != nil:
		return domain.MediaAnimation, msg.Animation.FileID
	case msg.Document != nil:
		return domain.MediaDocument, msg.Document.FileID
	case msg.Sticker != nil:
		return domain.MediaSticker, msg.Sticker.FileID
	}
	return "", ""
}

func (r *Router) handleAddEvent(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	raw := msg.Text
	if raw == "" {
		raw = msg.Caption
	}
	draft, err := domain.ParseEventCommand(raw, r.localNow())
	switch {
	case errors.Is(err, domain.ErrInvalidDate):
		r.reply(chatID, textInvalidDate)
		return
	case err != nil:
		r.reply(chatID, textEventUsage)
		return
	}

	n, err := r.repo.CountEventsByChat(ctx, chatID)
	if err != nil {
		r.log.Error("event count failed", zap.Error(err))
		r.reply(chatID, textInternalError)
		return
	}
	if n >= r.cfg.MaxEventsPerChat {
		r.reply(chatID, textEventLimit)
		return
	}

	kind, mediaID := mediaFromMessage(msg)
	e := &domain.Event{
		ChatID:    chatID,
		Name:      draft.Name,
		Day:       draft.Day,
		Month:     draft.Month,
		Year:      draft.Year,
		Message:   draft.Message,
		MediaKind: kind,
		MediaID:   mediaID,
		IsActive:  true,
		CreatedBy: msg.From.ID,
	}
	id, err := r.repo.AddEvent(ctx, e)
	if err != nil {
		r.log.Error("event add failed", zap.Error(err))
		r.reply(chatID, textInternalError)
		return
	}
	r.reply(chatID, fmt.Sprintf("✅ Событие «%s» добавлено на %s, ID: %d",
		draft.Name, renderDate(draft.Day, draft.Month, draft.Year), id))
}

func (r *Router) eventIDArg(msg *tgbotapi.Message) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil || id <= 0 {
		r.reply(msg.Chat.ID, textEventIDUsage)
		return 0, false
	}
	return id, true
}

func (r *Router) handleDeleteEvent(ctx context.Context, msg *tgbotapi.Message) {
	id, ok := r.eventIDArg(msg)
	if !ok {
		return
	}
	err := r.repo.DeleteEvent(ctx, msg.Chat.ID, id)
	if errors.Is(err, store.ErrNotFound) {
		r.reply(msg.Chat.ID, textNotFound)
		return
	}
	if err != nil {
		r.log.Error("event delete failed", zap.Error(err))
		r.reply(msg.Chat.ID, textInternalError)
		return
	}
	r.reply(msg.Chat.ID, "🗑 Событие удалено.")
}

func (r *Router) handleToggleEvent(ctx context.Context, msg *tgbotapi.Message) {
	id, ok := r.eventIDArg(msg)
	if !ok {
		return
	}
	active, err := r.repo.ToggleEvent(ctx, msg.Chat.ID, id)
	if errors.Is(err, store.ErrNotFound) {
		r.reply(msg.Chat.ID, textNotFound)
		return
	}
	if err != nil {
		r.log.Error("event toggle failed", zap.Error(err))
		r.reply(msg.Chat.ID, textInternalError)
		return
	}
	if active {
		r.reply(msg.Chat.ID, "✅ Событие включено.")
	} else {
		r.reply(msg.Chat.ID, "⏸ Событие выключено.")
	}
}

func (r *Router) handleListEvents(ctx context.Context, msg *tgbotapi.Message) {
	events, err := r.repo.ListEventsByChat(ctx, msg.Chat.ID)
	if err != nil {
		r.log.Error("event list failed", zap.Error(err))
		r.reply(msg.Chat.ID, textInternalError)
		return
	}
	r.reply(msg.Chat.ID, domain.FormatEventList(events))
}

func (r *Router) handleNextEvents(ctx context.Context, msg *tgbotapi.Message) {
	events, err := r.repo.ListEventsByChat(ctx, msg.Chat.ID)
	if err != nil {
		r.log.Error("event list failed", zap.Error(err))
		r.reply(msg.Chat.ID, textInternalError)
		return
	}
	r.reply(msg.Chat.ID, domain.FormatUpcomingEvents(events, r.localNow()))
}

// ---- owner commands ----

func (r *Router) handleAddChat(ctx context.Context, msg *tgbotapi.Message) {
	fields := strings.Fields(msg.CommandArguments())
	if len(fields) == 0 {
		r.reply(msg.Chat.ID, "Формат: /add_chat <chat_id> [название]")
		return
	}
	chatID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		r.reply(msg.Chat.ID, "Некорректный chat_id.")
		return
	}
	title := strings.Join(fields[1:], " ")
	if title == "" {
		title = fmt.Sprintf("chat %d", chatID)
	}
	if err := r.repo.AddChat(ctx, chatID, title, msg.From.ID); err != nil {
		r.log.Error("chat add failed", zap.Error(err))
		r.reply(msg.Chat.ID, textInternalError)
		return
	}
	r.reply(msg.Chat.ID, fmt.Sprintf("✅ Чат %d (%s) активирован.", chatID, title))
}

// handleRemoveChat starts the removal confirmation exchange. The cascade
// delete runs only after the owner repeats the chat id in the confirmation
// phrase.
func (r *Router) handleRemoveChat(ctx context.Context, msg *tgbotapi.Message) {
	chatID, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil {
		r.reply(msg.Chat.ID, "Формат: /remove_chat <chat_id>")
		return
	}
	allowed, err := r.repo.IsChatAllowed(ctx, chatID)
	if err != nil {
		r.log.Error("chat check failed", zap.Error(err))
		r.reply(msg.Chat.ID, textInternalError)
		return
	}
	if !allowed {
		r.reply(msg.Chat.ID, fmt.Sprintf("Чат %d не найден в списке активированных.", chatID))
		return
	}
	r.confirm.begin(chatID)
	r.reply(msg.Chat.ID, fmt.Sprintf(textRemoveChatConfirm, chatID, chatID))
}

func (r *Router) handleRemoveChatConfirm(ctx context.Context, msg *tgbotapi.Message) {
	chatID, outcome := r.confirm.resolve(msg.Text)
	switch outcome {
	case confirmAccepted:
		if err := r.repo.RemoveChat(ctx, chatID); err != nil {
			r.log.Error("chat remove failed", zap.Error(err))
			r.reply(msg.Chat.ID, textInternalError)
			return
		}
		r.reply(msg.Chat.ID, fmt.Sprintf("🗑 Чат %d удалён вместе с его днями рождения и событиями.", chatID))
		// Best effort: the bot may already be out of the chat.
		if err := r.sender.SendText(chatID, textChatDeactivated); err != nil {
			r.log.Info("deactivation notice not delivered", zap.Error(err), zap.Int64("chatID", chatID))
		}
	case confirmCanceled:
		r.reply(msg.Chat.ID, "❌ Удаление отменено.")
	}
}

func (r *Router) handleListChats(ctx context.Context, msg *tgbotapi.Message) {
	chats, err := r.repo.ListChats(ctx)
	if err != nil {
		r.log.Error("chat list failed", zap.Error(err))
		r.reply(msg.Chat.ID, textInternalError)
		return
	}
	if len(chats) == 0 {
		r.reply(msg.Chat.ID, "Активированных чатов нет.")
		return
	}
	var sb strings.Builder
	sb.WriteString("Активированные чаты:\n")
	for _, c := range chats {
		sb.WriteString(fmt.Sprintf("• %s (%d)\n", c.Title, c.ChatID))
	}
	r.reply(msg.Chat.ID, sb.String())
}

func (r *Router) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	s, err := r.repo.Stats(ctx)
	if err != nil {
		r.log.Error("stats failed", zap.Error(err))
		r.reply(msg.Chat.ID, textInternalError)
		return
	}
	r.reply(msg.Chat.ID, fmt.Sprintf(
		"📊 Статистика:\n• Чатов: %d\n• Дней рождения: %d\n• Событий: %d\n• Поздравлений в пуле: %d",
		s.Chats, s.Birthdays, s.Events, s.Congratulations))
}

// handleUploadCongratulations replaces the congratulation pool from an
// uploaded text document, one congratulation per line.
func (r *Router) handleUploadCongratulations(ctx context.Context, msg *tgbotapi.Message) {
	doc := msg.Document
	isText := strings.HasPrefix(doc.MimeType, "text/") || strings.HasSuffix(strings.ToLower(doc.FileName), ".txt")
	if !isText {
		r.reply(msg.Chat.ID, textPoolUploadHint)
		return
	}

	url, err := r.bot.GetFileDirectURL(doc.FileID)
	if err != nil {
		r.log.Error("file url failed", zap.Error(err))
		r.reply(msg.Chat.ID, textInternalError)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		r.reply(msg.Chat.ID, textInternalError)
		return
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		r.log.Error("file download failed", zap.Error(err))
		r.reply(msg.Chat.ID, textInternalError)
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		r.log.Error("file read failed", zap.Error(err))
		r.reply(msg.Chat.ID, textInternalError)
		return
	}

	lines := strings.Split(string(data), "\n")
	n, err := r.repo.ReplaceCongratulations(ctx, lines, msg.From.ID, r.cfg.MaxCongratulations)
	if err != nil {
		r.log.Error("pool replace failed", zap.Error(err))
		r.reply(msg.Chat.ID, textInternalError)
		return
	}
	r.reply(msg.Chat.ID, fmt.Sprintf("✅ Пул поздравлений заменён: %d шт. (лимит %d).", n, r.cfg.MaxCongratulations))
}

// ---- membership ----

// handleUserLeft removes the birthday record of a user who left the chat.
func (r *Router) handleUserLeft(ctx context.Context, chatID int64, user *tgbotapi.User) {
	if err := r.repo.DeleteBirthday(ctx, user.ID, chatID); err != nil {
		r.log.Error("birthday cleanup on leave failed", zap.Error(err),
			zap.Int64("chatID", chatID), zap.Int64("userID", user.ID))
		return
	}
	r.log.Info("removed birthday of departed user",
		zap.Int64("chatID", chatID), zap.Int64("userID", user.ID))
}

// handleNewChatMembers reacts to the bot being added to a chat: if the chat is
// not on the whitelist, the owner is notified so they can activate it.
func (r *Router) handleNewChatMembers(ctx context.Context, msg *tgbotapi.Message) {
	for i := range msg.NewChatMembers {
		if msg.NewChatMembers[i].ID != r.bot.Self.ID {
			continue
		}
		allowed, err := r.repo.IsChatAllowed(ctx, msg.Chat.ID)
		if err != nil {
			r.log.Error("chat check failed", zap.Error(err))
			return
		}
		if allowed {
			r.reply(msg.Chat.ID, textStart)
			return
		}
		r.reply(msg.Chat.ID, textChatNotAllowed)
		notice := fmt.Sprintf("Бот добавлен в неактивированный чат «%s» (%d).\nАктивировать: /add_chat %d %s",
			msg.Chat.Title, msg.Chat.ID, msg.Chat.ID, msg.Chat.Title)
		if err := r.sender.SendText(r.cfg.OwnerID, notice); err != nil {
			r.log.Error("owner notice failed", zap.Error(err))
		}
		return
	}
}
