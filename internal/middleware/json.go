package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError writes the API's failure envelope. Middleware cannot use the
// handlers package helpers without an import cycle.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}
