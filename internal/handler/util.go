package handler

import (
	"encoding/json"
	"net/http"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeWarning writes a non-fatal warning response, used when a
// completion call is blocked before any mutation.
func writeWarning(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"warning": message,
	})
}
