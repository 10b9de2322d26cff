package handlers

import (
	"net/http"

	"city-tours/internal/identity"
	"city-tours/internal/middleware"
	"city-tours/internal/models"
	"city-tours/internal/services"
)

// ProfileHandler handles profile HTTP requests
type ProfileHandler struct {
	identity *identity.Provider
	profiles *services.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(provider *identity.Provider, profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{identity: provider, profiles: profiles}
}

// GetProfile handles GET /api/v1/profile. The profile is created on first access.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.identity.GetUser(ctx, middleware.GetToken(ctx))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get user")
		return
	}

	overview, err := h.profiles.Load(ctx, user)
	if err != nil {
		respondServiceError(w, r, err, "Failed to load profile")
		return
	}
	respondJSON(w, http.StatusOK, overview)
}

// UpdateProfile handles PATCH /api/v1/profile
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch models.ProfilePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondServiceError(w, r, err, "Invalid request body")
		return
	}

	profile, err := h.profiles.Update(r.Context(), middleware.GetUserID(r.Context()), patch)
	if err != nil {
		respondServiceError(w, r, err, "Failed to update profile")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}
