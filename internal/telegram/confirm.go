package telegram

import (
	"fmt"
	"strings"
)

// confirmOutcome is the result of matching an owner message against a pending
// chat-removal confirmation.
type confirmOutcome int

const (
	confirmNone     confirmOutcome = iota // no pending confirmation
	confirmAccepted                       // phrase matched, proceed with removal
	confirmCanceled                       // cancel word, pending cleared
	confirmPending                        // unrelated text, confirmation stays open
)

var cancelWords = map[string]bool{"нет": true, "отмена": true, "cancel": true}

// removeConfirm holds the chat id awaiting a removal confirmation. Updates
// are handled on a single goroutine, so no locking is needed.
type removeConfirm struct {
	chatID int64
}

func (c *removeConfirm) begin(chatID int64) { c.chatID = chatID }

func (c *removeConfirm) active() bool { return c.chatID != 0 }

// resolve matches text against the pending confirmation. The phrase is
// "да, удалить <chat_id>" (the comma is optional), case-insensitive.
func (c *removeConfirm) resolve(text string) (int64, confirmOutcome) {
	if c.chatID == 0 {
		return 0, confirmNone
	}
	id := c.chatID
	t := strings.ToLower(strings.TrimSpace(text))
	switch t {
	case fmt.Sprintf("да, удалить %d", id), fmt.Sprintf("да удалить %d", id):
		c.chatID = 0
		return id, confirmAccepted
	}
	if cancelWords[t] {
		c.chatID = 0
		return id, confirmCanceled
	}
	return id, confirmPending
}
