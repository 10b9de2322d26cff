package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"city-tours/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepository handles database operations for user profiles
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByID retrieves the profile of a user
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT id, username, profile_image, created_at FROM profiles WHERE id = $1`
	var p models.Profile
	if err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.Username, &p.ProfileImage, &p.CreatedAt); err != nil {
		return nil, classify(err, "get profile", "profile", id)
	}
	return &p, nil
}

// Create inserts a profile; its id is the owning user id
func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	profile.CreatedAt = time.Now().UTC()

	query := `INSERT INTO profiles (id, username, profile_image, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.Exec(ctx, query, profile.ID, profile.Username, profile.ProfileImage, profile.CreatedAt)
	if err != nil {
		return classify(err, "create profile", "profile", profile.ID)
	}
	return nil
}

// Update applies a partial update and returns the stored row
func (r *ProfileRepository) Update(ctx context.Context, id string, patch models.ProfilePatch) (*models.Profile, error) {
	var set setClause
	if patch.Username != nil {
		set.add("username", *patch.Username)
	}
	if patch.ProfileImage != nil {
		set.add("profile_image", *patch.ProfileImage)
	}
	if set.empty() {
		return r.GetByID(ctx, id)
	}

	query := fmt.Sprintf(`UPDATE profiles SET %s WHERE id = %s RETURNING id, username, profile_image, created_at`,
		strings.Join(set.cols, ", "), set.next(id))
	var p models.Profile
	if err := r.db.QueryRow(ctx, query, set.args...).Scan(&p.ID, &p.Username, &p.ProfileImage, &p.CreatedAt); err != nil {
		return nil, classify(err, "update profile", "profile", id)
	}
	return &p, nil
}
