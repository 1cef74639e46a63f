package onboarding

import (
	"fmt"
	"unicode/utf8"

	"github.com/roskarniz/regbot/internal/regapi"
)

// MinPasswordLen is counted in Unicode code points.
const MinPasswordLen = 6

// Transition is the whole dialogue as a pure function. cur is nil when the
// user has no session; a nil next means the session must be cleared.
func Transition(cur *Session, ev Event) (next *Session, effects []Effect) {
	switch ev.Kind {
	case EventStart:
		sess := &Session{
			State:       StateAwaitingPhone,
			UserID:      ev.UserID,
			DisplayName: ev.SenderName,
		}
		return sess, []Effect{
			Reply{ChatID: ev.ChatID, Text: msgWelcome, Affordance: AffordanceContactRequest},
		}
	case EventCancel:
		return nil, []Effect{
			Reply{ChatID: ev.ChatID, Text: msgCancelled, Affordance: AffordanceRemove},
		}
	}

	switch stateOf(cur) {
	case StateAwaitingPhone:
		return awaitingPhone(cur, ev)
	case StateAwaitingPassword:
		return awaitingPassword(cur, ev)
	default:
		return nil, nil
	}
}

func awaitingPhone(cur *Session, ev Event) (*Session, []Effect) {
	if ev.Kind != EventContact || ev.Contact.Phone == "" {
		return cur, []Effect{
			Reply{ChatID: ev.ChatID, Text: msgUseButton, Affordance: AffordanceContactRequest},
		}
	}
	if !ev.OwnContact() {
		return cur, []Effect{
			Reply{ChatID: ev.ChatID, Text: msgNotOwnContact, Affordance: AffordanceContactRequest},
		}
	}

	next := *cur
	next.State = StateAwaitingPassword
	next.Phone = ev.Contact.Phone
	next.UserID = ev.UserID
	if ev.SenderName != "" {
		next.DisplayName = ev.SenderName
	}
	return &next, []Effect{
		Reply{
			ChatID:     ev.ChatID,
			Text:       fmt.Sprintf(msgPhoneAccepted, next.Phone, MinPasswordLen),
			Affordance: AffordanceRemove,
		},
	}
}

func awaitingPassword(cur *Session, ev Event) (*Session, []Effect) {
	if ev.Kind != EventText {
		return cur, nil
	}
	if utf8.RuneCountInString(ev.Text) < MinPasswordLen {
		return cur, []Effect{
			Reply{ChatID: ev.ChatID, Text: fmt.Sprintf(msgPasswordTooShort, MinPasswordLen)},
		}
	}
	return nil, []Effect{
		DeleteMessage{ChatID: ev.ChatID, MessageID: ev.MessageID},
		Register{
			ChatID: ev.ChatID,
			Request: regapi.Request{
				Phone:      cur.Phone,
				Password:   ev.Text,
				TelegramID: cur.UserID,
				Name:       cur.DisplayName,
			},
		},
	}
}
