package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/isdelr/taskdeck-be/internal/auth"
	"github.com/isdelr/taskdeck-be/internal/services"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles registration, login and session endpoints.
type AuthHandler struct {
	users  services.UserServiceProvider
	tokens *auth.TokenService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users services.UserServiceProvider, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// SignUpPayload defines the structure for registration requests.
type SignUpPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInPayload defines the structure for login requests.
type SignInPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is the token envelope returned by sign-up and sign-in.
type SessionResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// UserSummary is the public projection of a user account.
type UserSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AuthResponse is the common response shape of sign-up and sign-in.
type AuthResponse struct {
	Session SessionResponse `json:"session"`
	User    UserSummary     `json:"user"`
}

// SignUp handles new user registration and issues a token.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var payload SignUpPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.Name == "" || payload.Email == "" || payload.Password == "" {
		writeError(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}

	user, err := h.users.Register(payload.Name, payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		writeServiceError(w, err)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email, 0)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue token")
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Session: SessionResponse{AccessToken: token, TokenType: "bearer"},
		User:    UserSummary{ID: user.ID, Email: user.Email, Name: user.Name},
	})
}

// SignIn handles user authentication and token issuance.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var payload SignInPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.users.Authenticate(payload.Email, payload.Password)
	if err != nil {
		log.Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
		writeServiceError(w, err)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email, 0)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue token")
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Session: SessionResponse{AccessToken: token, TokenType: "bearer"},
		User:    UserSummary{ID: user.ID, Email: user.Email, Name: user.Name},
	})
}

// SignOut is a client-side no-op; tokens are stateless and never revoked
// server-side.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Signed out successfully"})
}

// Me returns the currently authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	user, err := h.users.GetUserByID(identity.UserID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", identity.UserID).Msg("Authenticated subject not found")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UserSummary{ID: user.ID, Email: user.Email, Name: user.Name})
}
