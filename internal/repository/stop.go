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

// StopRepository handles database operations for tour stops
type StopRepository struct {
	db *pgxpool.Pool
}

// NewStopRepository creates a new stop repository
func NewStopRepository(db *pgxpool.Pool) *StopRepository {
	return &StopRepository{db: db}
}

const stopColumns = `id, tour_id, title, description, latitude, longitude, stop_order, created_at`

// ListByTour retrieves the stops of a tour in presentation order.
// seq breaks ties between rows created within the same timestamp.
func (r *StopRepository) ListByTour(ctx context.Context, tourID string) ([]*models.Stop, error) {
	query := `
		SELECT ` + stopColumns + `
		FROM stops
		WHERE tour_id = $1
		ORDER BY stop_order ASC, created_at ASC, seq ASC
	`
	rows, err := r.db.Query(ctx, query, tourID)
	if err != nil {
		if isInvalidText(err) {
			return []*models.Stop{}, nil
		}
		return nil, fmt.Errorf("failed to list stops: %w", err)
	}
	defer rows.Close()

	var stops []*models.Stop
	for rows.Next() {
		stop, err := scanStop(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stop: %w", err)
		}
		stops = append(stops, stop)
	}

	if err := rows.Err(); err != nil {
		if isInvalidText(err) {
			return []*models.Stop{}, nil
		}
		return nil, fmt.Errorf("error iterating stops: %w", err)
	}

	return stops, nil
}

// GetByID retrieves a stop by ID
func (r *StopRepository) GetByID(ctx context.Context, id string) (*models.Stop, error) {
	query := `SELECT ` + stopColumns + ` FROM stops WHERE id = $1`
	stop, err := scanStop(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, classify(err, "get stop", "stop", id)
	}
	return stop, nil
}

// Create inserts a stop, assigning its id and creation time
func (r *StopRepository) Create(ctx context.Context, stop *models.Stop) error {
	stop.ID = uuid.New().String()
	stop.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO stops (id, tour_id, title, description, latitude, longitude, stop_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		stop.ID, stop.TourID, stop.Title, stop.Description,
		stop.Latitude, stop.Longitude, stop.StopOrder, stop.CreatedAt,
	)
	if err != nil {
		return classify(err, "create stop", "stop", stop.ID)
	}
	return nil
}

// Update applies a partial update and returns the stored row
func (r *StopRepository) Update(ctx context.Context, id string, update models.StopUpdate) (*models.Stop, error) {
	var set setClause
	if update.Title != nil {
		set.add("title", *update.Title)
	}
	if update.Description != nil {
		set.add("description", *update.Description)
	}
	if update.Latitude != nil {
		set.add("latitude", *update.Latitude)
	}
	if update.Longitude != nil {
		set.add("longitude", *update.Longitude)
	}
	if update.StopOrder != nil {
		set.add("stop_order", *update.StopOrder)
	}
	if set.empty() {
		return r.GetByID(ctx, id)
	}

	query := fmt.Sprintf(`UPDATE stops SET %s WHERE id = %s RETURNING %s`,
		strings.Join(set.cols, ", "), set.next(id), stopColumns)
	stop, err := scanStop(r.db.QueryRow(ctx, query, set.args...))
	if err != nil {
		return nil, classify(err, "update stop", "stop", id)
	}
	return stop, nil
}

// Delete deletes a stop by ID
func (r *StopRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM stops WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return classify(err, "delete stop", "stop", id)
	}
	if result.RowsAffected() == 0 {
		return models.NewNotFoundError("stop", id)
	}
	return nil
}

// DeleteByTour deletes every stop of a tour in a single statement
func (r *StopRepository) DeleteByTour(ctx context.Context, tourID string) (int64, error) {
	query := `DELETE FROM stops WHERE tour_id = $1`
	result, err := r.db.Exec(ctx, query, tourID)
	if err != nil {
		return 0, classify(err, "delete stops of tour", "tour", tourID)
	}
	return result.RowsAffected(), nil
}

func scanStop(row scanner) (*models.Stop, error) {
	var s models.Stop
	err := row.Scan(
		&s.ID, &s.TourID, &s.Title, &s.Description,
		&s.Latitude, &s.Longitude, &s.StopOrder, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
