package handlers

import (
	"net/http"

	"city-tours/internal/identity"
	"city-tours/internal/middleware"
	"city-tours/internal/models"

	"github.com/rs/zerolog/log"
)

// AuthHandler handles account HTTP requests
type AuthHandler struct {
	identity *identity.Provider
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(provider *identity.Provider) *AuthHandler {
	return &AuthHandler{identity: provider}
}

// SignUpRequest is the body of POST /auth/signup
type SignUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// CredentialsRequest is the body of POST /auth/token
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RecoverRequest is the body of POST /auth/recover
type RecoverRequest struct {
	Email string `json:"email"`
}

// RecoverConfirmRequest is the body of POST /auth/recover/confirm
type RecoverConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// SignUp handles POST /api/v1/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err, "Invalid request body")
		return
	}

	sess, err := h.identity.SignUp(r.Context(), req.Email, req.Password, models.UserAttributes{
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		respondServiceError(w, r, err, "Failed to sign up")
		return
	}

	respondJSON(w, http.StatusCreated, sess)
}

// SignIn handles POST /api/v1/auth/token
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err, "Invalid request body")
		return
	}

	sess, err := h.identity.SignInWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, r, err, "Failed to sign in")
		return
	}

	respondJSON(w, http.StatusOK, sess)
}

// SignOut handles POST /api/v1/auth/logout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.identity.SignOut(r.Context(), middleware.GetToken(r.Context())); err != nil {
		respondServiceError(w, r, err, "Failed to sign out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CurrentUser handles GET /api/v1/auth/user
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.identity.GetUser(r.Context(), middleware.GetToken(r.Context()))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// Recover handles POST /api/v1/auth/recover
func (h *AuthHandler) Recover(w http.ResponseWriter, r *http.Request) {
	var req RecoverRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err, "Invalid request body")
		return
	}

	reset, err := h.identity.ResetPasswordForEmail(r.Context(), req.Email)
	if err != nil {
		respondServiceError(w, r, err, "Failed to request password reset")
		return
	}

	respondJSON(w, http.StatusOK, reset)
}

// RecoverConfirm handles POST /api/v1/auth/recover/confirm
func (h *AuthHandler) RecoverConfirm(w http.ResponseWriter, r *http.Request) {
	var req RecoverConfirmRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err, "Invalid request body")
		return
	}

	if err := h.identity.ConfirmPasswordReset(r.Context(), req.Token, req.Password); err != nil {
		respondServiceError(w, r, err, "Failed to reset password")
		return
	}

	log.Debug().Msg("Password reset confirmed")
	w.WriteHeader(http.StatusNoContent)
}
