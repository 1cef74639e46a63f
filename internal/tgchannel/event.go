// Package tgchannel connects the registration dialogue to Telegram.
package tgchannel

import (
	"strings"

	"github.com/roskarniz/regbot/internal/onboarding"

	tele "gopkg.in/telebot.v4"
)

// EventFromUpdate converts a Telegram update into a dialogue event.
// Only private-chat messages with a known sender produce an event.
func EventFromUpdate(upd tele.Update) (onboarding.Event, bool) {
	msg := upd.Message
	if msg == nil || msg.Sender == nil || msg.Chat == nil {
		return onboarding.Event{}, false
	}
	if msg.Chat.Type != tele.ChatPrivate {
		return onboarding.Event{}, false
	}

	ev := onboarding.Event{
		UserID:     msg.Sender.ID,
		ChatID:     msg.Chat.ID,
		MessageID:  msg.ID,
		SenderName: FullName(msg.Sender),
	}

	switch {
	case msg.Contact != nil:
		ev.Kind = onboarding.EventContact
		ev.Contact = onboarding.Contact{
			Phone:   msg.Contact.PhoneNumber,
			OwnerID: msg.Contact.UserID,
		}
	case msg.Text != "":
		ev.Text = msg.Text
		ev.Kind = onboarding.EventText
		if name, ok := commandName(msg.Text); ok {
			switch name {
			case "start":
				ev.Kind = onboarding.EventStart
			case "cancel":
				ev.Kind = onboarding.EventCancel
			default:
				ev.Kind = onboarding.EventCommand
			}
		}
	default:
		ev.Kind = onboarding.EventOther
	}
	return ev, true
}

// commandName extracts "start" from "/start@RegBot payload".
func commandName(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	head, _, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "\n")
	head, _, _ = strings.Cut(head, "@")
	if head == "" {
		return "", false
	}
	return strings.ToLower(head), true
}

// FullName joins first and last name the way Telegram clients show them.
func FullName(u *tele.User) string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}
