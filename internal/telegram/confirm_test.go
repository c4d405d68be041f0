package telegram

import "testing"

func TestRemoveConfirm_AcceptPhrases(t *testing.T) {
	for _, text := range []string{
		"да, удалить -100500",
		"да удалить -100500",
		"  ДА, УДАЛИТЬ -100500  ",
	} {
		var c removeConfirm
		c.begin(-100500)
		id, out := c.resolve(text)
		if out != confirmAccepted || id != -100500 {
			t.Fatalf("%q: got (%d, %d), want accepted", text, id, out)
		}
		if c.active() {
			t.Fatalf("%q: confirmation must be consumed", text)
		}
	}
}

func TestRemoveConfirm_WrongChatIDNotAccepted(t *testing.T) {
	var c removeConfirm
	c.begin(-100500)
	if _, out := c.resolve("да, удалить -200"); out != confirmPending {
		t.Fatalf("phrase with another chat id must not confirm, got %d", out)
	}
	// The pending confirmation survives unrelated text.
	if !c.active() {
		t.Fatal("confirmation must stay open after a mismatch")
	}
	if id, out := c.resolve("да, удалить -100500"); out != confirmAccepted || id != -100500 {
		t.Fatalf("got (%d, %d), want accepted", id, out)
	}
}

func TestRemoveConfirm_CancelWords(t *testing.T) {
	for _, text := range []string{"нет", "отмена", "cancel", "  Отмена "} {
		var c removeConfirm
		c.begin(-1)
		if _, out := c.resolve(text); out != confirmCanceled {
			t.Fatalf("%q: want canceled, got %d", text, out)
		}
		if c.active() {
			t.Fatalf("%q: cancel must clear the pending confirmation", text)
		}
	}
}

func TestRemoveConfirm_NothingPending(t *testing.T) {
	var c removeConfirm
	if _, out := c.resolve("да, удалить -100500"); out != confirmNone {
		t.Fatalf("without a pending confirmation want none, got %d", out)
	}
}
