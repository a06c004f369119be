package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/isdelr/taskdeck-be/internal/config"
	"github.com/rs/zerolog/log"
)

// MockUserHeader impersonates a user without credentials. Honored only in
// development mode.
const MockUserHeader = "X-Mock-User-ID"

// Anonymous identity used in development when no credential is attached.
var devIdentity = Identity{UserID: "dev-user-id", Email: "dev@example.com"}

type contextKey string

const identityKey = contextKey("identity")

// Authenticator resolves a caller identity for each request.
type Authenticator struct {
	tokens *TokenService
	mode   config.Mode
}

// NewAuthenticator creates an Authenticator for the given deployment mode.
func NewAuthenticator(tokens *TokenService, mode config.Mode) *Authenticator {
	return &Authenticator{tokens: tokens, mode: mode}
}

// Middleware resolves an identity and stores it on the request context.
// Resolution order: mock header (development only), anonymous development
// identity when no bearer credential is attached (development only), then
// bearer token verification. In production only a valid bearer token grants
// an identity; everything else is a 401.
func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a.mode == config.Development {
				if mockID := r.Header.Get(MockUserHeader); mockID != "" {
					log.Warn().Str("user_id", mockID).Msg("Development mock-user header in use")
					serveAs(next, w, r, Identity{UserID: mockID, Email: mockID + "@gmail.com"})
					return
				}
			}

			tokenStr := bearerToken(r)
			if tokenStr == "" {
				if a.mode == config.Development {
					log.Debug().Str("user_id", devIdentity.UserID).Msg("No credential attached, using anonymous development identity")
					serveAs(next, w, r, devIdentity)
					return
				}
				unauthorized(w)
				return
			}

			identity, err := a.tokens.Verify(tokenStr)
			if err != nil {
				log.Warn().Err(err).Msg("Rejected bearer token")
				unauthorized(w)
				return
			}
			serveAs(next, w, r, identity)
		})
	}
}

func serveAs(next http.Handler, w http.ResponseWriter, r *http.Request, identity Identity) {
	ctx := context.WithValue(r.Context(), identityKey, identity)
	next.ServeHTTP(w, r.WithContext(ctx))
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"Could not validate credentials"}`))
}

// IdentityFrom returns the identity stored on the context by Middleware.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
