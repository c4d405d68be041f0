package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/asmeev28-png/daysbot/internal/domain"
)

// Sender is the outbound half of the chat gateway. It satisfies
// scheduler.Dispatcher.
type Sender struct {
	bot *tgbotapi.BotAPI
}

func NewSender(bot *tgbotapi.BotAPI) *Sender {
	return &Sender{bot: bot}
}

// SendText sends a plain text message to the given chat.
func (s *Sender) SendText(chatID int64, text string) error {
	_, err := s.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendMedia sends a media attachment with a caption. An unsupported kind
// falls back to a text-only send of the caption.
func (s *Sender) SendMedia(chatID int64, kind domain.MediaKind, mediaID, caption string) error {
	file := tgbotapi.FileID(mediaID)
	var msg tgbotapi.Chattable
	switch kind {
	case domain.MediaPhoto:
		m := tgbotapi.NewPhoto(chatID, file)
		m.Caption = caption
		msg = m
	case domain.MediaVideo:
		m := tgbotapi.NewVideo(chatID, file)
		m.Caption = caption
		msg = m
	case domain.MediaAnimation:
		m := tgbotapi.NewAnimation(chatID, file)
		m.Caption = caption
		msg = m
	case domain.MediaDocument:
		m := tgbotapi.NewDocument(chatID, file)
		m.Caption = caption
		msg = m
	case domain.MediaSticker:
		// Stickers carry no caption; send the text as a separate message.
		if _, err := s.bot.Send(tgbotapi.NewSticker(chatID, file)); err != nil {
			return err
		}
		return s.SendText(chatID, caption)
	default:
		return s.SendText(chatID, caption)
	}
	_, err := s.bot.Send(msg)
	return err
}
