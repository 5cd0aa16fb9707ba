// Package auth provides API-key middleware for the collector's HTTP receiver.
//
// APIKey(mode, header, key) wraps an http.Handler. When mode != "apikey"
// every request passes through (local development with auth disabled).
// Otherwise a missing or incorrect header value is rejected with 401 before
// the wrapped handler runs. An apikey mode with an empty key rejects every
// request.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
)

// ModeAPIKey enables key checking.
const ModeAPIKey = "apikey"

// APIKey returns middleware enforcing the given key on header.
func APIKey(mode, header, key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if mode != ModeAPIKey {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(header)
			if key == "" || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				slog.Warn("auth: rejected request", "path", r.URL.Path, "remote", r.RemoteAddr, "header_present", got != "")
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", "ApiKey header="+header)
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "invalid api key"}) //nolint:errcheck
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
