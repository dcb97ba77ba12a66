package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// APIKeyAuth requires "Authorization: Bearer <key>" (or the bare key) on every
// request except health probes. An empty key disables the check, which is the
// default for a console bound to loopback.
func APIKeyAuth(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProbe(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				http.Error(w, "missing Authorization header", http.StatusUnauthorized)
				return
			}
			got := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if got == "" {
				http.Error(w, "invalid Authorization header format", http.StatusUnauthorized)
				return
			}
			// constant-time comparison
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				http.Error(w, "invalid API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isProbe(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}
