package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/photodrop/service/internal/response"
)

// SecretParam is the query parameter carrying the shared secret.
const SecretParam = "key"

const unauthorizedMessage = "Unauthorized"

// RequireSecret returns middleware that admits a request only when its ?key=
// parameter equals secret exactly. An empty secret rejects everything. Every
// rejection writes the same body.
func RequireSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !secretMatches(secret, r.URL.Query().Get(SecretParam)) {
				response.Unauthorized(w, unauthorizedMessage)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func secretMatches(secret, given string) bool {
	if secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(given)) == 1
}
