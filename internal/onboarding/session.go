// Package onboarding implements the registration dialogue: a per-user state
// machine that collects a phone number and a password and registers them
// with the site.
package onboarding

// State is the step a user is at. The zero value means no active session.
type State int

const (
	StateNone State = iota
	StateAwaitingPhone
	StateAwaitingPassword
)

func (s State) String() string {
	switch s {
	case StateAwaitingPhone:
		return "awaiting_phone"
	case StateAwaitingPassword:
		return "awaiting_password"
	default:
		return "none"
	}
}

// Session is the in-memory progress of one user's registration.
// Phone is set whenever State is StateAwaitingPassword.
type Session struct {
	State       State
	UserID      int64
	Phone       string
	DisplayName string
}

func stateOf(s *Session) State {
	if s == nil {
		return StateNone
	}
	return s.State
}
