package daemon

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// requireAuth guards an API handler with the configured bearer token. A
// daemon started without paths.api_token serves unauthenticated.
func (s *apiServer) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	if s.token == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		presented, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(s.token)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}
