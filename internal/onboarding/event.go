package onboarding

// EventKind classifies an inbound message.
type EventKind int

const (
	EventStart EventKind = iota + 1
	EventCancel
	EventContact
	EventText
	// EventCommand is any slash command other than start and cancel.
	EventCommand
	// EventOther covers media and anything else without text or contact.
	EventOther
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventCancel:
		return "cancel"
	case EventContact:
		return "contact"
	case EventText:
		return "text"
	case EventCommand:
		return "command"
	case EventOther:
		return "other"
	default:
		return "unknown"
	}
}

// Contact is a shared phone card.
type Contact struct {
	Phone string
	// OwnerID is the account the card belongs to; 0 when it has none.
	OwnerID int64
}

// Event is one inbound message, already detached from the transport.
type Event struct {
	Kind       EventKind
	UserID     int64
	ChatID     int64
	MessageID  int
	SenderName string
	Text       string
	Contact    Contact
}

// OwnContact reports whether the event shares the sender's own number.
func (e Event) OwnContact() bool {
	return e.Kind == EventContact && e.Contact.OwnerID != 0 && e.Contact.OwnerID == e.UserID
}
