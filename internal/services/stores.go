package services

import (
	"context"

	"city-tours/internal/models"
)

// TourStore is the tours table
type TourStore interface {
	List(ctx context.Context, filter models.TourFilter) ([]*models.Tour, error)
	GetByID(ctx context.Context, id string) (*models.Tour, error)
	Create(ctx context.Context, tour *models.Tour) error
	Update(ctx context.Context, id string, update models.TourUpdate) (*models.Tour, error)
	Delete(ctx context.Context, id string) error
}

// StopStore is the stops table
type StopStore interface {
	ListByTour(ctx context.Context, tourID string) ([]*models.Stop, error)
	GetByID(ctx context.Context, id string) (*models.Stop, error)
	Create(ctx context.Context, stop *models.Stop) error
	Update(ctx context.Context, id string, update models.StopUpdate) (*models.Stop, error)
	Delete(ctx context.Context, id string) error
	DeleteByTour(ctx context.Context, tourID string) (int64, error)
}

// ImageStore is the tour_imagenes table
type ImageStore interface {
	ListByTour(ctx context.Context, tourID string) ([]*models.TourImage, error)
	GetByID(ctx context.Context, id string) (*models.TourImage, error)
	Create(ctx context.Context, img *models.TourImage) error
	Delete(ctx context.Context, id string) error
	DeleteByTour(ctx context.Context, tourID string) (int64, error)
}

// ProfileStore is the profiles table
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	Update(ctx context.Context, id string, patch models.ProfilePatch) (*models.Profile, error)
}

// Recorder receives service level metrics
type Recorder interface {
	RecordChatReply(fallback bool, bucket string)
	RecordUpload(bytes int)
}

type nopRecorder struct{}

func (nopRecorder) RecordChatReply(bool, string) {}
func (nopRecorder) RecordUpload(int)             {}
