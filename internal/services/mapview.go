package services

import (
	"context"
	"math"

	"city-tours/internal/models"
)

// Region shown when a tour has no stops (Seville)
const (
	DefaultLatitude  = 37.3886
	DefaultLongitude = -5.9823
	MinMapDelta      = 0.05
	mapPadding       = 1.5
)

// MapService computes map regions for tours
type MapService struct {
	tours *TourService
	stops *StopService
}

// NewMapService creates a new map service
func NewMapService(tours *TourService, stops *StopService) *MapService {
	return &MapService{tours: tours, stops: stops}
}

// MapView returns the region covering every stop of a tour, and its markers in stop order
func (s *MapService) MapView(ctx context.Context, tourID string) (*models.MapView, error) {
	tour, err := s.tours.GetTour(ctx, tourID)
	if err != nil {
		return nil, err
	}
	stops, err := s.stops.ListStopsByTour(ctx, tour.ID)
	if err != nil {
		return nil, err
	}

	view := regionFor(stops)
	view.TourID = tour.ID
	return view, nil
}

func regionFor(stops []*models.Stop) *models.MapView {
	view := &models.MapView{
		Latitude:       DefaultLatitude,
		Longitude:      DefaultLongitude,
		LatitudeDelta:  MinMapDelta,
		LongitudeDelta: MinMapDelta,
		Markers:        make([]models.MapMarker, 0, len(stops)),
	}
	if len(stops) == 0 {
		return view
	}

	minLat, maxLat := stops[0].Latitude, stops[0].Latitude
	minLng, maxLng := stops[0].Longitude, stops[0].Longitude
	for _, st := range stops {
		minLat = math.Min(minLat, st.Latitude)
		maxLat = math.Max(maxLat, st.Latitude)
		minLng = math.Min(minLng, st.Longitude)
		maxLng = math.Max(maxLng, st.Longitude)
		view.Markers = append(view.Markers, models.MapMarker{
			StopID:      st.ID,
			Title:       st.Title,
			Description: st.Description,
			Latitude:    st.Latitude,
			Longitude:   st.Longitude,
			StopOrder:   st.StopOrder,
		})
	}

	view.Latitude = (minLat + maxLat) / 2
	view.Longitude = (minLng + maxLng) / 2
	view.LatitudeDelta = math.Max(MinMapDelta, (maxLat-minLat)*mapPadding)
	view.LongitudeDelta = math.Max(MinMapDelta, (maxLng-minLng)*mapPadding)
	return view
}
