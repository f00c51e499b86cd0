package middleware

import (
	"encoding/json"
	"net/http"
)

// writeJSONError writes an error body shaped like the handlers' MessageEnvelope.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Error     string `json:"error"`
		ErrorCode int    `json:"error_code"`
	}{msg, status})
}
