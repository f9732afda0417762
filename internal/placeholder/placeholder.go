// Package placeholder recognises content values that were left unconfigured
// in the content document. Such values render as absent.
package placeholder

import (
	"fmt"
	"strings"
)

// Tokens are the marker substrings that denote a value still waiting to be filled in.
var Tokens = []string{
	"[УТОЧНИТЬ",
	"[WEBHOOK_URL",
	"[YANDEX_METRIKA_ID",
	"[VK_PIXEL_ID",
}

// IsPlaceholder reports whether v is absent, blank, or carries a marker token.
func IsPlaceholder(v any) bool {
	s, ok := stringify(v)
	if !ok {
		return true
	}
	if strings.TrimSpace(s) == "" {
		return true
	}
	for _, token := range Tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}

// Clean returns "" for placeholder values and the literal string otherwise.
func Clean(v any) string {
	if IsPlaceholder(v) {
		return ""
	}
	s, _ := stringify(v)
	return s
}

// CleanAll drops placeholder entries while keeping source order.
func CleanAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if IsPlaceholder(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// FirstClean returns the first non-placeholder value.
func FirstClean(values ...string) string {
	for _, v := range values {
		if c := Clean(v); c != "" {
			return c
		}
	}
	return ""
}

func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case *string:
		if t == nil {
			return "", false
		}
		return *t, true
	case fmt.Stringer:
		return t.String(), true
	default:
		return fmt.Sprintf("%v", t), true
	}
}
