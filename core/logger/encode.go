package logger

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var lineJSONAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// columns returns the keys of rec: those named in order first, the rest sorted.
func columns(rec record, order []string) []string {
	keys := make([]string, 0, len(rec))
	placed := make(map[string]bool, len(order))
	for _, k := range order {
		if _, ok := rec[k]; ok && !placed[k] {
			keys = append(keys, k)
			placed[k] = true
		}
	}
	var rest []string
	for k := range rec {
		if !placed[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func encode(rec record, format lineFormat, order []string) ([]byte, error) {
	var buf bytes.Buffer
	keys := columns(rec, order)
	if format == lineKV {
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(k)
			buf.WriteByte('=')
			buf.WriteString(kvValue(rec[k]))
		}
		return buf.Bytes(), nil
	}

	buf.WriteByte('{')
	for i, k := range keys {
		val, err := lineJSONAPI.Marshal(rec[k])
		if err != nil {
			return nil, fmt.Errorf("logger: encode %s: %w", k, err)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(k))
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func kvValue(v any) string {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	default:
		s = fmt.Sprint(x)
	}
	if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
