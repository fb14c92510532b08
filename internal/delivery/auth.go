package delivery

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

// OperatorAuth guards operator endpoints with a shared token presented as
// Authorization: Bearer <token> or X-API-Key. An empty configured token
// rejects every request.
func OperatorAuth(token string) func(http.Handler) http.Handler {
	var want [sha256.Size]byte
	if token != "" {
		want = sha256.Sum256([]byte(token))
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				writeError(w, http.StatusUnauthorized, "operator endpoints are disabled")
				return
			}
			presented := extractToken(r)
			if presented == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="operator"`)
				writeError(w, http.StatusUnauthorized, "missing operator token")
				return
			}
			got := sha256.Sum256([]byte(presented))
			if subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid operator token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken reads Authorization: Bearer first, then X-API-Key. Query
// parameters are not accepted so tokens stay out of access logs.
func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}
