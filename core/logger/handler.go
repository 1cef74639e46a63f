package logger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

type lineFormat uint8

const (
	lineJSON lineFormat = iota
	lineKV
)

const tsLayout = "2006-01-02T15:04:05.000Z07:00"

type field struct {
	key string
	val any
}

// handler renders records as single json or kv lines. Attributes added
// through WithAttrs are resolved once and replayed on every line.
type handler struct {
	level  slog.Leveler
	out    *lineWriter
	format lineFormat
	order  []string
	group  string
	preset []field
}

func newHandler(lvl slog.Leveler, out *lineWriter, format lineFormat, order []string) *handler {
	if lvl == nil {
		lvl = slog.LevelInfo
	}
	if order == nil {
		order = keyOrder
	}
	return &handler{level: lvl, out: out, format: format, order: order}
}

func (h *handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	if h.out == nil {
		return errors.New("logger: output not initialized")
	}
	rec := make(record, 16)
	ts := r.Time.UTC()
	rec["ts"] = ts.Truncate(time.Millisecond).Format(tsLayout)
	rec["level"] = levelName(r.Level)
	if h.format == lineJSON {
		rec["ts_unix_nano"] = ts.UnixNano()
	}
	for _, f := range h.preset {
		rec[f.key] = f.val
	}
	r.Attrs(func(a slog.Attr) bool {
		flatten(h.group, a, func(f field) { rec[f.key] = f.val })
		return true
	})
	rec.fromContext(ctx)
	rec.finish(r.Message, h.format == lineJSON)

	line, err := encode(rec, h.format, h.order)
	if err != nil {
		return err
	}
	return h.out.Write(append(line, '\n'))
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = append([]field(nil), h.preset...)
	for _, a := range attrs {
		flatten(h.group, a, func(f field) { next.preset = append(next.preset, f) })
	}
	return &next
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = joinKey(h.group, name)
	return &next
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

// flatten resolves LogValuers and expands groups into dotted keys.
func flatten(prefix string, a slog.Attr, emit func(field)) {
	key := joinKey(prefix, a.Key)
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			flatten(key, child, emit)
		}
		return
	}
	if key == "" {
		return
	}
	if f, ok := plain(key, v); ok {
		emit(f)
	}
}

// plain converts a slog value to what the encoders print. Durations become
// whole milliseconds under a *_ms key.
func plain(key string, v slog.Value) (field, bool) {
	switch v.Kind() {
	case slog.KindString:
		return field{key, strings.TrimSpace(v.String())}, true
	case slog.KindInt64:
		return field{key, v.Int64()}, true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return field{key, int64(u)}, true
		}
		return field{key, v.Uint64()}, true
	case slog.KindFloat64:
		return field{key, v.Float64()}, true
	case slog.KindBool:
		return field{key, v.Bool()}, true
	case slog.KindDuration:
		return field{durationKey(key), RoundMS(v.Duration()).Milliseconds()}, true
	case slog.KindTime:
		return field{key, v.Time().UTC().Format(time.RFC3339Nano)}, true
	}
	switch x := v.Any().(type) {
	case nil:
		return field{}, false
	case error:
		return field{key, x.Error()}, true
	case string:
		return field{key, strings.TrimSpace(x)}, true
	case time.Duration:
		return field{durationKey(key), RoundMS(x).Milliseconds()}, true
	case fmt.Stringer:
		return field{key, x.String()}, true
	default:
		return field{key, fmt.Sprint(x)}, true
	}
}

func durationKey(key string) string {
	if key == "duration" {
		return "duration_ms"
	}
	if strings.HasSuffix(key, "_ms") {
		return key
	}
	return key + "_ms"
}
