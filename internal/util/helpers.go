package util

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// ToBool loosely converts an interface value to bool.
func ToBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}

// NumFrom converts a JSON-decoded numeric value (float64, int, int64) to
// float64.
func NumFrom(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
