package middleware

import (
	"encoding/json"
	"net/http"

	"blooddonation/internal/i18n"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes {"error": code, "message": ...} localized for the request.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorBody{
		Error:   code,
		Message: i18n.Message(LocaleFromContext(r.Context()), code),
	})
}
