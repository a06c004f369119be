package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/taskdeck-be/internal/config"
	"github.com/rs/zerolog/log"
)

// RequireOwner authorizes the authenticated identity against the {userID}
// route parameter. It is the sole path-level enforcement point for per-user
// data isolation and must run after the authentication middleware.
//
// In development mode isolation is disabled; every bypass is logged so it
// can never pass silently.
func RequireOwner(mode config.Mode) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pathUserID := chi.URLParam(r, "userID")

			identity, ok := IdentityFrom(r.Context())
			if !ok {
				unauthorized(w)
				return
			}

			if mode == config.Development {
				if pathUserID != identity.UserID {
					log.Debug().
						Str("path_user_id", pathUserID).
						Str("auth_user_id", identity.UserID).
						Msg("Ownership check bypassed in development mode")
				}
				next.ServeHTTP(w, r)
				return
			}

			if pathUserID != identity.UserID {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":"Access denied: Insufficient permissions"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
