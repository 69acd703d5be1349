package utils

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes v with status code. The status is already sent when an encode error is returned.
func WriteJSON(w http.ResponseWriter, code int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

// BearerToken extracts a token from the "token" cookie, the "token" header or an
// "Authorization: Bearer" header, in that order.
func BearerToken(r *http.Request) string {
	if c, err := r.Cookie("token"); err == nil && c.Value != "" {
		return c.Value
	}
	if t := r.Header.Get("token"); t != "" {
		return t
	}
	const prefix = "Bearer "
	if h := r.Header.Get("Authorization"); len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}
