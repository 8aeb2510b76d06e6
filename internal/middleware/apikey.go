package middleware

import (
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"
)

// APIKey guards the API with a shared key carried in X-API-Key. An empty
// configured key disables the check entirely; full authentication is an
// external concern.
func APIKey(key string, logr *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				logr.Warn("rejected request with bad api key", zap.String("path", r.URL.Path))
				http.Error(w, "invalid API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
