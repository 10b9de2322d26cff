package repository

import (
	"context"
	"fmt"

	"city-tours/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TourImageRepository handles database operations for tour images
type TourImageRepository struct {
	db *pgxpool.Pool
}

// NewTourImageRepository creates a new tour image repository
func NewTourImageRepository(db *pgxpool.Pool) *TourImageRepository {
	return &TourImageRepository{db: db}
}

// ListByTour retrieves the images attached to a tour
func (r *TourImageRepository) ListByTour(ctx context.Context, tourID string) ([]*models.TourImage, error) {
	query := `SELECT id, idtour, imagen FROM tour_imagenes WHERE idtour = $1 ORDER BY imagen`
	rows, err := r.db.Query(ctx, query, tourID)
	if err != nil {
		if isInvalidText(err) {
			return []*models.TourImage{}, nil
		}
		return nil, fmt.Errorf("failed to list tour images: %w", err)
	}
	defer rows.Close()

	var images []*models.TourImage
	for rows.Next() {
		var img models.TourImage
		if err := rows.Scan(&img.ID, &img.TourID, &img.Imagen); err != nil {
			return nil, fmt.Errorf("failed to scan tour image: %w", err)
		}
		images = append(images, &img)
	}

	if err := rows.Err(); err != nil {
		if isInvalidText(err) {
			return []*models.TourImage{}, nil
		}
		return nil, fmt.Errorf("error iterating tour images: %w", err)
	}

	return images, nil
}

// GetByID retrieves a tour image by ID
func (r *TourImageRepository) GetByID(ctx context.Context, id string) (*models.TourImage, error) {
	query := `SELECT id, idtour, imagen FROM tour_imagenes WHERE id = $1`
	var img models.TourImage
	if err := r.db.QueryRow(ctx, query, id).Scan(&img.ID, &img.TourID, &img.Imagen); err != nil {
		return nil, classify(err, "get tour image", "image", id)
	}
	return &img, nil
}

// Create attaches an image to a tour
func (r *TourImageRepository) Create(ctx context.Context, img *models.TourImage) error {
	img.ID = uuid.New().String()

	query := `INSERT INTO tour_imagenes (id, idtour, imagen) VALUES ($1, $2, $3)`
	if _, err := r.db.Exec(ctx, query, img.ID, img.TourID, img.Imagen); err != nil {
		return classify(err, "create tour image", "tour", img.TourID)
	}
	return nil
}

// Delete removes one image
func (r *TourImageRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM tour_imagenes WHERE id = $1`, id)
	if err != nil {
		return classify(err, "delete tour image", "image", id)
	}
	if result.RowsAffected() == 0 {
		return models.NewNotFoundError("image", id)
	}
	return nil
}

// DeleteByTour removes every image of a tour
func (r *TourImageRepository) DeleteByTour(ctx context.Context, tourID string) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM tour_imagenes WHERE idtour = $1`, tourID)
	if err != nil {
		return 0, classify(err, "delete tour images", "tour", tourID)
	}
	return result.RowsAffected(), nil
}
