// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/gowrstat/gowrstat/internal/auth"
	"github.com/gowrstat/gowrstat/internal/log"
)

// requireJWT guards a route group with bearer-token auth. The secret is
// read per request so a config reload takes effect without restarting.
// An empty secret disables auth entirely; startup logs a warning for
// that case, here every request would drown it.
func (s *Server) requireJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret := s.deps.Config.Get().API.JWTSecret
		if secret == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := auth.ExtractBearer(r)
		if token == "" {
			unauthorized(w, r, "missing bearer token")
			return
		}

		if _, err := auth.Verify(token, []byte(secret)); err != nil {
			logger := log.WithComponentFromContext(r.Context(), "api")
			logger.Warn().
				Str(log.FieldEvent, "auth.rejected").
				Str(log.FieldPath, r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Err(err).
				Msg("rejected bearer token")
			unauthorized(w, r, "invalid bearer token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="gowrstat"`)
	writeProblem(w, r, http.StatusUnauthorized, ErrUnauthorized, detail)
}
