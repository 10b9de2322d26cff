package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"city-tours/internal/models"
	"city-tours/internal/storage"

	"github.com/rs/zerolog/log"
)

// TourService handles tour business rules
type TourService struct {
	tours  TourStore
	stops  StopStore
	images ImageStore
	files  storage.Storage
}

// NewTourService creates a new tour service; files may be nil
func NewTourService(tours TourStore, stops StopStore, images ImageStore, files storage.Storage) *TourService {
	return &TourService{
		tours:  tours,
		stops:  stops,
		images: images,
		files:  files,
	}
}

// ListTours returns tours newest first; an empty filter lists every tour
func (s *TourService) ListTours(ctx context.Context, filter models.TourFilter) ([]*models.Tour, error) {
	filter.City = strings.TrimSpace(filter.City)
	filter.CreatedBy = strings.TrimSpace(filter.CreatedBy)

	tours, err := s.tours.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tours: %w", err)
	}
	sort.SliceStable(tours, func(i, j int) bool {
		return tours[i].CreatedAt.After(tours[j].CreatedAt)
	})
	if tours == nil {
		tours = []*models.Tour{}
	}
	return tours, nil
}

// GetTour returns one tour or a not-found error
func (s *TourService) GetTour(ctx context.Context, id string) (*models.Tour, error) {
	if strings.TrimSpace(id) == "" {
		return nil, models.NewValidationError("tour id is required")
	}
	return s.tours.GetByID(ctx, id)
}

// CreateTour validates the form and stores a tour owned by ownerID
func (s *TourService) CreateTour(ctx context.Context, input models.TourInput, ownerID string) (*models.Tour, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, models.NewUnauthorizedError("an authenticated owner is required")
	}

	tour, err := newTour(input)
	if err != nil {
		return nil, err
	}
	tour.CreatedBy = ownerID

	if err := s.tours.Create(ctx, tour); err != nil {
		return nil, fmt.Errorf("failed to create tour: %w", err)
	}

	log.Info().Str("tour_id", tour.ID).Str("user_id", ownerID).Msg("Tour created")
	return tour, nil
}

func newTour(input models.TourInput) (*models.Tour, error) {
	title, err := requiredText("title", input.Title)
	if err != nil {
		return nil, err
	}
	description, err := requiredText("description", input.Description)
	if err != nil {
		return nil, err
	}
	city, err := requiredText("city", input.City)
	if err != nil {
		return nil, err
	}
	price, err := parsePrice(input.Price)
	if err != nil {
		return nil, err
	}
	duration, err := parseDuration(input.Duration)
	if err != nil {
		return nil, err
	}

	return &models.Tour{
		Title:       title,
		Description: description,
		City:        city,
		Language:    languageOrDefault(input.Language),
		Price:       price,
		Duration:    duration,
		Imagenes:    strings.TrimSpace(input.Imagenes),
	}, nil
}

// UpdateTour validates the provided fields only and applies them
func (s *TourService) UpdateTour(ctx context.Context, id string, patch models.TourPatch) (*models.Tour, error) {
	update, err := tourUpdate(patch)
	if err != nil {
		return nil, err
	}

	tour, err := s.tours.Update(ctx, id, update)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update tour: %w", err)
	}
	return tour, nil
}

func tourUpdate(patch models.TourPatch) (models.TourUpdate, error) {
	var u models.TourUpdate
	empty := true

	text := func(field string, in *string, out **string) error {
		if in == nil {
			return nil
		}
		empty = false
		v, err := requiredText(field, *in)
		if err != nil {
			return err
		}
		*out = &v
		return nil
	}
	if err := text("title", patch.Title, &u.Title); err != nil {
		return u, err
	}
	if err := text("description", patch.Description, &u.Description); err != nil {
		return u, err
	}
	if err := text("city", patch.City, &u.City); err != nil {
		return u, err
	}
	if patch.Language != nil {
		empty = false
		lang := languageOrDefault(*patch.Language)
		u.Language = &lang
	}
	if patch.Price != nil {
		empty = false
		price, err := parsePrice(*patch.Price)
		if err != nil {
			return u, err
		}
		u.Price = &price
	}
	if patch.Duration != nil {
		empty = false
		d, err := parseDuration(*patch.Duration)
		if err != nil {
			return u, err
		}
		u.Duration = &d
	}
	if patch.Imagenes != nil {
		empty = false
		img := strings.TrimSpace(*patch.Imagenes)
		u.Imagenes = &img
	}

	if empty {
		return u, models.NewValidationError("no fields to update")
	}
	return u, nil
}

// DeleteTour removes the stops and image rows of a tour before the tour itself.
// If a child delete fails the tour row is left in place.
func (s *TourService) DeleteTour(ctx context.Context, id string) error {
	if _, err := s.tours.GetByID(ctx, id); err != nil {
		return err
	}

	images, err := s.images.ListByTour(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list tour images: %w", err)
	}

	stops, err := s.stops.DeleteByTour(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete stops of tour: %w", err)
	}
	if _, err := s.images.DeleteByTour(ctx, id); err != nil {
		return fmt.Errorf("failed to delete images of tour: %w", err)
	}
	if err := s.tours.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete tour: %w", err)
	}

	s.removeFiles(ctx, images)
	log.Info().Str("tour_id", id).Int64("stops", stops).Int("images", len(images)).Msg("Tour deleted")
	return nil
}

// removeFiles deletes stored objects for removed image rows; failures only leave orphaned blobs
func (s *TourService) removeFiles(ctx context.Context, images []*models.TourImage) {
	if s.files == nil {
		return
	}
	for _, img := range images {
		key, ok := storage.KeyFromURL(s.files, img.Imagen)
		if !ok {
			continue
		}
		if err := s.files.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to delete image object")
		}
	}
}

// AuthorizeTourOwner returns the tour when userID created it
func (s *TourService) AuthorizeTourOwner(ctx context.Context, tourID, userID string) (*models.Tour, error) {
	tour, err := s.GetTour(ctx, tourID)
	if err != nil {
		return nil, err
	}
	if userID == "" || tour.CreatedBy != userID {
		return nil, models.NewForbiddenError("only the creator of the tour can modify it")
	}
	return tour, nil
}
