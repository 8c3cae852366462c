package httpapi

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mquispe/accessdir/internal/auth"
)

func loggingMiddleware(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now().UTC()
		next.ServeHTTP(w, r)
		logger.Printf("%s %s from=%s dur=%s", r.Method, r.URL.Path, r.RemoteAddr, time.Since(start))
	})
}

// identityHandler is a handler that requires an authenticated caller.
type identityHandler func(w http.ResponseWriter, r *http.Request, id auth.Identity)

// withIdentity resolves the bearer token to a session identity and rejects
// the request with 401 when there is none.
func (s *Server) withIdentity(next identityHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.sessions.Get(bearerToken(r))
		if !ok {
			writeError(w, http.StatusUnauthorized, "not_authenticated", "missing or expired session token")
			return
		}
		next(w, r, id)
	}
}

// withAdmin is withIdentity plus an ADMIN role check.
func (s *Server) withAdmin(next identityHandler) http.HandlerFunc {
	return s.withIdentity(func(w http.ResponseWriter, r *http.Request, id auth.Identity) {
		if !id.Admin() {
			writeError(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		next(w, r, id)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
