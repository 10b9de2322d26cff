package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"city-tours/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TourRepository handles database operations for tours
type TourRepository struct {
	db *pgxpool.Pool
}

// NewTourRepository creates a new tour repository
func NewTourRepository(db *pgxpool.Pool) *TourRepository {
	return &TourRepository{db: db}
}

const tourColumns = `id, title, description, city, language, price, duration, created_by, created_at, imagenes`

// List retrieves tours matching the filter, newest first
func (r *TourRepository) List(ctx context.Context, filter models.TourFilter) ([]*models.Tour, error) {
	query := `
		SELECT ` + tourColumns + `
		FROM tours
		WHERE ($1 = '' OR city = $1)
		  AND ($2 = '' OR created_by::text = $2)
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, filter.City, filter.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to list tours: %w", err)
	}
	defer rows.Close()

	var tours []*models.Tour
	for rows.Next() {
		tour, err := scanTour(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tour: %w", err)
		}
		tours = append(tours, tour)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tours: %w", err)
	}

	return tours, nil
}

// GetByID retrieves a tour by ID
func (r *TourRepository) GetByID(ctx context.Context, id string) (*models.Tour, error) {
	query := `SELECT ` + tourColumns + ` FROM tours WHERE id = $1`
	tour, err := scanTour(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, classify(err, "get tour", "tour", id)
	}
	return tour, nil
}

// Create inserts a tour, assigning its id and creation time
func (r *TourRepository) Create(ctx context.Context, tour *models.Tour) error {
	tour.ID = uuid.New().String()
	tour.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO tours (id, title, description, city, language, price, duration, created_by, created_at, imagenes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		tour.ID, tour.Title, tour.Description, tour.City, tour.Language,
		tour.Price, tour.Duration, tour.CreatedBy, tour.CreatedAt, tour.Imagenes,
	)
	if err != nil {
		return classify(err, "create tour", "tour", tour.ID)
	}
	return nil
}

// Update applies a partial update and returns the stored row
func (r *TourRepository) Update(ctx context.Context, id string, update models.TourUpdate) (*models.Tour, error) {
	var set setClause
	if update.Title != nil {
		set.add("title", *update.Title)
	}
	if update.Description != nil {
		set.add("description", *update.Description)
	}
	if update.City != nil {
		set.add("city", *update.City)
	}
	if update.Language != nil {
		set.add("language", *update.Language)
	}
	if update.Price != nil {
		set.add("price", *update.Price)
	}
	if update.Duration != nil {
		set.add("duration", *update.Duration)
	}
	if update.Imagenes != nil {
		set.add("imagenes", *update.Imagenes)
	}
	if set.empty() {
		return r.GetByID(ctx, id)
	}

	query := fmt.Sprintf(`UPDATE tours SET %s WHERE id = %s RETURNING %s`,
		strings.Join(set.cols, ", "), set.next(id), tourColumns)
	tour, err := scanTour(r.db.QueryRow(ctx, query, set.args...))
	if err != nil {
		return nil, classify(err, "update tour", "tour", id)
	}
	return tour, nil
}

// Delete deletes a tour by ID
func (r *TourRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM tours WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return classify(err, "delete tour", "tour", id)
	}
	if result.RowsAffected() == 0 {
		return models.NewNotFoundError("tour", id)
	}
	return nil
}

func scanTour(row scanner) (*models.Tour, error) {
	var t models.Tour
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.City, &t.Language,
		&t.Price, &t.Duration, &t.CreatedBy, &t.CreatedAt, &t.Imagenes,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
