package telegram

import (
	"context"
	"regexp"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/asmeev28-png/daysbot/internal/config"
	"github.com/asmeev28-png/daysbot/internal/scheduler"
	"github.com/asmeev28-png/daysbot/internal/store"
)

// Free-text birthday registration trigger, e.g. "мой др 28.06.1998".
var birthdayTriggerRe = regexp.MustCompile(`(?i)^(мой\s+др|мой\s+день\s+рождения|др)\s+.+`)

// Router wires Telegram updates to handlers.
type Router struct {
	bot    *tgbotapi.BotAPI
	log    *zap.Logger
	repo   store.Repo
	res    *scheduler.Resolver
	sender *Sender
	cfg    config.Config
	loc    *time.Location

	// Pending /remove_chat confirmation from the owner.
	confirm removeConfirm

	// now is replaceable in tests.
	now func() time.Time
}

func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, repo store.Repo, res *scheduler.Resolver, cfg config.Config) *Router {
	return &Router{
		bot:    bot,
		log:    log,
		repo:   repo,
		res:    res,
		sender: NewSender(bot),
		cfg:    cfg,
		loc:    cfg.Location(),
		now:    time.Now,
	}
}

// localNow returns the current time in the fixed civil calendar, so command
// replies agree with the scheduler about what "today" is.
func (r *Router) localNow() time.Time {
	return r.now().In(r.loc)
}

// HandleUpdate routes a single update to the appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil {
		return
	}
	chatID := msg.Chat.ID

	// Membership service messages.
	if msg.LeftChatMember != nil {
		r.handleUserLeft(ctx, chatID, msg.LeftChatMember)
		return
	}
	if len(msg.NewChatMembers) > 0 {
		r.handleNewChatMembers(ctx, msg)
		return
	}

	// Congratulation pool upload: a text document from the owner in private.
	if msg.Document != nil && msg.Chat.IsPrivate() && msg.From != nil && r.cfg.IsOwner(msg.From.ID) {
		r.handleUploadCongratulations(ctx, msg)
		return
	}

	// Owner plain text while a /remove_chat confirmation is open.
	if msg.Chat.IsPrivate() && msg.From != nil && r.cfg.IsOwner(msg.From.ID) &&
		!msg.IsCommand() && r.confirm.active() {
		r.handleRemoveChatConfirm(ctx, msg)
		return
	}

	isGroup := msg.Chat.IsGroup() || msg.Chat.IsSuperGroup()

	if msg.IsCommand() {
		r.routeCommand(ctx, msg, isGroup)
		return
	}

	// Free-text birthday registration in groups.
	if isGroup && birthdayTriggerRe.MatchString(msg.Text) {
		if !r.requireAllowedChat(ctx, chatID) {
			return
		}
		r.handleBirthdayMessage(ctx, msg)
	}
}

func (r *Router) routeCommand(ctx context.Context, msg *tgbotapi.Message, isGroup bool) {
	chatID := msg.Chat.ID

	// Owner commands live in the private chat.
	if msg.Chat.IsPrivate() {
		if msg.From == nil || !r.cfg.IsOwner(msg.From.ID) {
			switch msg.Command() {
			case "start", "about":
				r.reply(chatID, textStart)
			}
			return
		}
		switch msg.Command() {
		case "start", "owner_help":
			r.reply(chatID, textOwnerHelp)
		case "add_chat":
			r.handleAddChat(ctx, msg)
		case "remove_chat":
			r.handleRemoveChat(ctx, msg)
		case "list_chats":
			r.handleListChats(ctx, msg)
		case "stats":
			r.handleStats(ctx, msg)
		default:
			r.reply(chatID, textOwnerHelp)
		}
		return
	}

	if !isGroup {
		return
	}

	// Everything below operates in an allowed group chat only.
	switch msg.Command() {
	case "start":
		if r.requireAllowedChat(ctx, chatID) {
			r.reply(chatID, textStart)
		}
	case "about":
		if r.requireAllowedChat(ctx, chatID) {
			r.reply(chatID, textAbout)
		}
	case "mybirthday":
		if r.requireAllowedChat(ctx, chatID) {
			r.handleMyBirthday(ctx, msg)
		}
	case "birthlist":
		if r.requireAllowedChat(ctx, chatID) {
			r.handleBirthList(ctx, msg)
		}
	case "whoisnext":
		if r.requireAllowedChat(ctx, chatID) {
			r.handleWhoIsNext(ctx, msg)
		}
	case "dr":
		if r.requireAllowedChat(ctx, chatID) {
			r.handleSearch(ctx, msg)
		}
	case "add":
		if r.requireAllowedChat(ctx, chatID) && r.requireAdmin(msg) {
			r.handleAdminAdd(ctx, msg)
		}
	case "delete":
		if r.requireAllowedChat(ctx, chatID) && r.requireAdmin(msg) {
			r.handleAdminDelete(ctx, msg)
		}
	case "force_congratulate":
		if r.requireAllowedChat(ctx, chatID) && r.requireAdmin(msg) {
			r.handleForceCongratulate(ctx, msg)
		}
	case "add_event":
		if r.requireAllowedChat(ctx, chatID) && r.requireAdmin(msg) {
			r.handleAddEvent(ctx, msg)
		}
	case "delete_event":
		if r.requireAllowedChat(ctx, chatID) && r.requireAdmin(msg) {
			r.handleDeleteEvent(ctx, msg)
		}
	case "toggle_event":
		if r.requireAllowedChat(ctx, chatID) && r.requireAdmin(msg) {
			r.handleToggleEvent(ctx, msg)
		}
	case "list_events":
		if r.requireAllowedChat(ctx, chatID) {
			r.handleListEvents(ctx, msg)
		}
	case "next_events":
		if r.requireAllowedChat(ctx, chatID) {
			r.handleNextEvents(ctx, msg)
		}
	}
}

// requireAllowedChat checks the whitelist and refuses the command otherwise.
func (r *Router) requireAllowedChat(ctx context.Context, chatID int64) bool {
	allowed, err := r.repo.IsChatAllowed(ctx, chatID)
	if err != nil {
		r.log.Error("chat check failed", zap.Error(err), zap.Int64("chatID", chatID))
		return false
	}
	if !allowed {
		r.reply(chatID, textChatNotAllowed)
	}
	return allowed
}

// requireAdmin verifies the sender is a chat administrator (or the bot owner).
// Administrator status is the chat platform's own notion; the bot adds nothing.
func (r *Router) requireAdmin(msg *tgbotapi.Message) bool {
	if msg.From == nil {
		return false
	}
	if r.cfg.IsOwner(msg.From.ID) {
		return true
	}
	member, err := r.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: msg.Chat.ID,
			UserID: msg.From.ID,
		},
	})
	if err != nil {
		r.log.Warn("chat member lookup failed", zap.Error(err))
		return false
	}
	if member.IsCreator() || member.IsAdministrator() {
		return true
	}
	r.reply(msg.Chat.ID, textAdminsOnly)
	return false
}

func (r *Router) reply(chatID int64, text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log.Error("reply failed", zap.Error(err), zap.Int64("chatID", chatID))
	}
}
