package middleware

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeError rejects a request. htmx callers get JSON and no swap so the
// page keeps its current content; everyone else gets plain text.
func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	if IsHTMX(r.Context()) {
		w.Header().Set("HX-Reswap", "none")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(code)
		_ = jsoniter.NewEncoder(w).Encode(errorResponse{Error: msg})
		return
	}
	http.Error(w, msg, code)
}
