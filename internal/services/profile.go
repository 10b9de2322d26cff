package services

import (
	"context"
	"fmt"
	"strings"

	"city-tours/internal/models"

	"github.com/rs/zerolog/log"
)

const defaultUsername = "Usuario"

// ProfileService handles user profiles
type ProfileService struct {
	profiles ProfileStore
	tours    TourStore
}

// NewProfileService creates a new profile service
func NewProfileService(profiles ProfileStore, tours TourStore) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		tours:    tours,
	}
}

// Load returns the profile of user, creating it on first access, with the number of tours they created
func (s *ProfileService) Load(ctx context.Context, user *models.AuthUser) (*models.ProfileOverview, error) {
	if user == nil || user.ID == "" {
		return nil, models.NewUnauthorizedError("an authenticated user is required")
	}

	profile, err := s.profiles.GetByID(ctx, user.ID)
	if models.IsNotFound(err) {
		profile, err = s.create(ctx, user)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	tours, err := s.tours.List(ctx, models.TourFilter{CreatedBy: user.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to count tours: %w", err)
	}

	return &models.ProfileOverview{Profile: profile, TourCount: len(tours)}, nil
}

func (s *ProfileService) create(ctx context.Context, user *models.AuthUser) (*models.Profile, error) {
	profile := &models.Profile{ID: user.ID, Username: usernameFor(user)}
	if user.AvatarURL != nil {
		profile.ProfileImage = *user.AvatarURL
	}

	err := s.profiles.Create(ctx, profile)
	if models.KindOf(err) == models.KindConflict {
		// created concurrently
		return s.profiles.GetByID(ctx, user.ID)
	}
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID).Msg("Profile created")
	return profile, nil
}

func usernameFor(user *models.AuthUser) string {
	if local, _, ok := strings.Cut(user.Email, "@"); ok && local != "" {
		return local
	}
	return defaultUsername
}

// Update changes the username or profile image of a user
func (s *ProfileService) Update(ctx context.Context, userID string, patch models.ProfilePatch) (*models.Profile, error) {
	if patch.Username == nil && patch.ProfileImage == nil {
		return nil, models.NewValidationError("no fields to update")
	}
	if patch.Username != nil {
		name, err := requiredText("username", *patch.Username)
		if err != nil {
			return nil, err
		}
		patch.Username = &name
	}

	profile, err := s.profiles.Update(ctx, userID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}
