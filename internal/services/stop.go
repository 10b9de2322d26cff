package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"city-tours/internal/models"

	"github.com/rs/zerolog/log"
)

// StopService handles stop business rules
type StopService struct {
	stops StopStore
	tours *TourService
}

// NewStopService creates a new stop service
func NewStopService(stops StopStore, tours *TourService) *StopService {
	return &StopService{
		stops: stops,
		tours: tours,
	}
}

// ListStopsByTour returns the stops of a tour by stop order, then creation time.
// Unknown tours have no stops.
func (s *StopService) ListStopsByTour(ctx context.Context, tourID string) ([]*models.Stop, error) {
	stops, err := s.stops.ListByTour(ctx, tourID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stops: %w", err)
	}
	sortStops(stops)
	if stops == nil {
		stops = []*models.Stop{}
	}
	return stops, nil
}

// sortStops orders stops in place; full ties keep their incoming order
func sortStops(stops []*models.Stop) {
	sort.SliceStable(stops, func(i, j int) bool {
		if stops[i].StopOrder != stops[j].StopOrder {
			return stops[i].StopOrder < stops[j].StopOrder
		}
		return stops[i].CreatedAt.Before(stops[j].CreatedAt)
	})
}

// GetStop returns one stop or a not-found error
func (s *StopService) GetStop(ctx context.Context, id string) (*models.Stop, error) {
	if strings.TrimSpace(id) == "" {
		return nil, models.NewValidationError("stop id is required")
	}
	return s.stops.GetByID(ctx, id)
}

// CreateStop validates every field before the stop is stored
func (s *StopService) CreateStop(ctx context.Context, input models.StopInput) (*models.Stop, error) {
	stop, err := newStop(input)
	if err != nil {
		return nil, err
	}

	if err := s.stops.Create(ctx, stop); err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewNotFoundError("tour", stop.TourID)
		}
		return nil, fmt.Errorf("failed to create stop: %w", err)
	}

	log.Debug().Str("stop_id", stop.ID).Str("tour_id", stop.TourID).Msg("Stop created")
	return stop, nil
}

func newStop(input models.StopInput) (*models.Stop, error) {
	tourID, err := requiredText("tour_id", input.TourID)
	if err != nil {
		return nil, err
	}
	title, err := requiredText("title", input.Title)
	if err != nil {
		return nil, err
	}
	description, err := requiredText("description", input.Description)
	if err != nil {
		return nil, err
	}
	lat, err := parseLatitude(input.Latitude)
	if err != nil {
		return nil, err
	}
	lng, err := parseLongitude(input.Longitude)
	if err != nil {
		return nil, err
	}
	order, err := parseStopOrder(input.StopOrder)
	if err != nil {
		return nil, err
	}

	return &models.Stop{
		TourID:      tourID,
		Title:       title,
		Description: description,
		Latitude:    lat,
		Longitude:   lng,
		StopOrder:   order,
	}, nil
}

// UpdateStop validates the provided fields only and applies them
func (s *StopService) UpdateStop(ctx context.Context, id string, patch models.StopPatch) (*models.Stop, error) {
	update, err := stopUpdate(patch)
	if err != nil {
		return nil, err
	}

	stop, err := s.stops.Update(ctx, id, update)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update stop: %w", err)
	}
	return stop, nil
}

func stopUpdate(patch models.StopPatch) (models.StopUpdate, error) {
	var u models.StopUpdate
	empty := true

	if patch.Title != nil {
		empty = false
		v, err := requiredText("title", *patch.Title)
		if err != nil {
			return u, err
		}
		u.Title = &v
	}
	if patch.Description != nil {
		empty = false
		v, err := requiredText("description", *patch.Description)
		if err != nil {
			return u, err
		}
		u.Description = &v
	}
	if patch.Latitude != nil {
		empty = false
		v, err := parseLatitude(*patch.Latitude)
		if err != nil {
			return u, err
		}
		u.Latitude = &v
	}
	if patch.Longitude != nil {
		empty = false
		v, err := parseLongitude(*patch.Longitude)
		if err != nil {
			return u, err
		}
		u.Longitude = &v
	}
	if patch.StopOrder != nil {
		empty = false
		v, err := parseStopOrder(*patch.StopOrder)
		if err != nil {
			return u, err
		}
		u.StopOrder = &v
	}

	if empty {
		return u, models.NewValidationError("no fields to update")
	}
	return u, nil
}

// DeleteStop removes one stop
func (s *StopService) DeleteStop(ctx context.Context, id string) error {
	if err := s.stops.Delete(ctx, id); err != nil {
		if models.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("failed to delete stop: %w", err)
	}
	return nil
}

// AuthorizeStopOwner returns the stop when userID owns its parent tour
func (s *StopService) AuthorizeStopOwner(ctx context.Context, stopID, userID string) (*models.Stop, error) {
	stop, err := s.GetStop(ctx, stopID)
	if err != nil {
		return nil, err
	}
	if _, err := s.tours.AuthorizeTourOwner(ctx, stop.TourID, userID); err != nil {
		return nil, err
	}
	return stop, nil
}
