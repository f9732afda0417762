package middleware

import (
	"net/http"
	"strings"
)

// HTMX marks requests coming from htmx so handlers/middlewares can adapt responses
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is := r.Header.Get("HX-Request") == "true"
		if is {
			w.Header().Add("Vary", "HX-Request")
		}
		ctx := WithHTMX(r.Context(), is)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TriggerEvent asks htmx to dispatch a client event after the swap, so
// fragments listening with hx-trigger="<name> from:body" refresh.
func TriggerEvent(w http.ResponseWriter, names ...string) {
	if len(names) == 0 {
		return
	}
	w.Header().Set("HX-Trigger", strings.Join(names, ", "))
}

// Redirect sends the browser to url: HX-Redirect for htmx, 303 otherwise.
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	if IsHTMX(r.Context()) {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
