package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// keyOrder lists the columns this bot emits, in print order. Other keys follow alphabetically.
var keyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "ts_unix_nano",
	"update_id", "user_id", "chat_id", "handler",
	"state", "next_state", "trigger",
	"result", "http_code", "request_id", "duration_ms",
	"payload", "mode", "listen", "public_url",
	"db", "host", "port", "sessions",
	"err", "error_kind", "attempts",
}

func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARN"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// record is one log line before encoding.
type record map[string]any

func (r record) str(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (r record) setDefault(key string, val any) {
	if _, ok := r[key]; !ok {
		r[key] = val
	}
}

// fromContext copies update identifiers carried by ctx into columns not set explicitly.
func (r record) fromContext(ctx context.Context) {
	m := metaFrom(ctx)
	if m.rid != "" {
		r.setDefault("rid", m.rid)
	}
	if m.updateID != 0 {
		r.setDefault("update_id", m.updateID)
	}
	if m.userID != 0 {
		r.setDefault("user_id", m.userID)
	}
	if m.chatID != 0 {
		r.setDefault("chat_id", m.chatID)
	}
	if m.handler != "" {
		r.setDefault("handler", m.handler)
	}
}

// finish applies defaults and drops empty values. keepFullRID keeps the raw
// rid next to its compact form.
func (r record) finish(msg string, keepFullRID bool) {
	if rid := r.str("rid"); rid != "" {
		if short := CompactRID(rid); short != rid {
			if keepFullRID {
				r.setDefault("rid_full", rid)
			}
			r["rid"] = short
		}
	}
	if r.str("event") == "" {
		r["event"] = "unknown"
		if msg != "" {
			r["event"] = msg
		}
	}
	if r.str("component") == "" {
		r["component"] = "app"
	}
	if s := r.str("status"); s != "" {
		r["status"] = strings.ToLower(strings.TrimSpace(s))
	}
	for k, v := range r {
		if v == nil || v == "" {
			delete(r, k)
		}
	}
}
