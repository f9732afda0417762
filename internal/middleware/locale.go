package middleware

import (
	"context"
	"net/http"
	"strings"

	"laserwave.studio/web/internal/i18n"
)

// Locale resolves the UI language: ?hl= override, then the stored
// preference, then Accept-Language.
func Locale(bundle *i18n.Bundle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ctxKeyLocaleFB, bundle.Fallback())
			r = r.WithContext(ctx)
			p := GetPrefs(r)
			if q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("hl"))); q != "" && bundle.IsSupported(q) {
				if p.Locale != q {
					p.Locale = q
					p.MarkDirty()
				}
			} else if p.Locale == "" || !bundle.IsSupported(p.Locale) {
				p.Locale = bundle.Resolve(r.Header.Get("Accept-Language"))
				p.MarkDirty()
			}
			w.Header().Set("Content-Language", p.Locale)
			w.Header().Add("Vary", "Accept-Language")
			next.ServeHTTP(w, r)
		})
	}
}

// Lang returns current lang from prefs or the bundle fallback, default "ru".
func Lang(r *http.Request) string {
	if p := GetPrefs(r); p.Locale != "" {
		return p.Locale
	}
	if fb, ok := r.Context().Value(ctxKeyLocaleFB).(string); ok && fb != "" {
		return fb
	}
	return "ru"
}
