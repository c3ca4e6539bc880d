package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rpineda/aichat-be/internal/auth"
	"github.com/rpineda/aichat-be/internal/config"
	"github.com/rpineda/aichat-be/internal/services"
)

// UserHandler handles HTTP requests for signup, login and session state.
type UserHandler struct {
	service services.UserServiceProvider
	tokens  *auth.TokenManager
	cfg     *config.Config
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, tokens *auth.TokenManager, cfg *config.Config) *UserHandler {
	return &UserHandler{service: service, tokens: tokens, cfg: cfg}
}

// SignupPayload defines the structure for registration requests.
type SignupPayload struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Signup handles new user registration. On success the session cookie is set
// and the public profile is returned, never the password hash.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload SignupPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErrorStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(payload); err != nil {
		writeErrorStatus(w, http.StatusBadRequest, services.ErrValidation.Error())
		return
	}

	user, err := h.service.Signup(payload.Name, payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Signup failed")
		writeError(w, err)
		return
	}

	if !h.startSession(w, user.ID, user.Email) {
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "User registered successfully.",
		"name":    user.Name,
		"email":   user.Email,
	})
}

// Login handles user authentication and session issuance.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErrorStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(payload); err != nil {
		writeErrorStatus(w, http.StatusBadRequest, services.ErrValidation.Error())
		return
	}

	user, err := h.service.Authenticate(payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed authentication attempt")
		writeError(w, err)
		return
	}

	if !h.startSession(w, user.ID, user.Email) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Login successful.",
		"name":    user.Name,
		"email":   user.Email,
	})
}

// AuthStatus resolves the verified token back to a user profile. A valid
// token whose user no longer exists is treated as unauthorized.
func (h *UserHandler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user claims from context")
		writeErrorStatus(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	user, err := h.service.GetUserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeErrorStatus(w, http.StatusUnauthorized, services.ErrUnauthorized.Error())
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "OK",
		"name":    user.Name,
		"email":   user.Email,
	})
}

// Logout clears the session cookie. Sessions are stateless, so there is
// nothing server-side to invalidate.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.cfg.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.AppEnv == "production",
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful."})
}

// List returns every registered user.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "OK", "users": users})
}

// startSession issues a token and delivers it as an httpOnly cookie. Clients
// may instead replay the cookie value as a Bearer header.
func (h *UserHandler) startSession(w http.ResponseWriter, userID, email string) bool {
	token, err := h.tokens.Issue(userID, email)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to issue session token")
		writeErrorStatus(w, http.StatusInternalServerError, "something went wrong")
		return false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.cfg.CookieDomain,
		Expires:  time.Now().Add(h.cfg.TokenTTL),
		HttpOnly: true,
		Secure:   h.cfg.AppEnv == "production",
		SameSite: http.SameSiteStrictMode,
	})
	return true
}
