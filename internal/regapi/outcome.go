package regapi

import (
	"fmt"
	"log/slog"
	"unicode/utf8"
)

// Kind classifies the result of a registration call.
type Kind int

const (
	Success Kind = iota + 1
	DuplicatePhone
	DuplicateIdentity
	ValidationOther
	ServerError
	TransportFailure
)

var kindNames = map[Kind]string{
	Success:           "success",
	DuplicatePhone:    "duplicate_phone",
	DuplicateIdentity: "duplicate_identity",
	ValidationOther:   "validation_other",
	ServerError:       "server_error",
	TransportFailure:  "transport_failure",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Outcome is the classified answer of the registration service.
type Outcome struct {
	Kind Kind
	// Status is the HTTP status code; 0 for TransportFailure.
	Status int
	// Body is the raw response body of a ValidationOther answer.
	Body string
	// RequestID is the X-Request-ID sent with the call.
	RequestID string
}

// MaxNameRunes is the longest display name the service accepts.
const MaxNameRunes = 255

// Request carries the fields of a registration call.
type Request struct {
	Phone      string
	Password   string
	TelegramID int64
	Name       string
}

// LogValue keeps the password out of logs.
func (r Request) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("phone", r.Phone),
		slog.Int64("telegram_id", r.TelegramID),
		slog.Bool("has_name", r.Name != ""),
		slog.Int("password_len", utf8.RuneCountInString(r.Password)),
	)
}

type payload struct {
	Phone      string `json:"phone"`
	Password   string `json:"password"`
	TelegramID int64  `json:"telegram_id"`
	Name       string `json:"name,omitempty"`
}

func newPayload(r Request) payload {
	return payload{
		Phone:      r.Phone,
		Password:   r.Password,
		TelegramID: r.TelegramID,
		Name:       truncateRunes(r.Name, MaxNameRunes),
	}
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
