package onboarding

import "github.com/roskarniz/regbot/internal/regapi"

// Affordance is the keyboard change attached to a reply.
type Affordance int

const (
	AffordanceNone Affordance = iota
	// AffordanceContactRequest offers a one-tap "share my number" button.
	AffordanceContactRequest
	// AffordanceRemove hides any reply keyboard.
	AffordanceRemove
)

// Effect is an action the dialog asks its collaborators to perform.
type Effect interface {
	effect()
}

// Reply sends text to a chat.
type Reply struct {
	ChatID     int64
	Text       string
	Affordance Affordance
}

// DeleteMessage erases a message; failure is tolerated.
type DeleteMessage struct {
	ChatID    int64
	MessageID int
}

// Register calls the registration service and reports the outcome to ChatID.
type Register struct {
	ChatID  int64
	Request regapi.Request
}

func (Reply) effect()         {}
func (DeleteMessage) effect() {}
func (Register) effect()      {}
