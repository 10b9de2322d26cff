package services

import (
	"context"
	"testing"
	"time"

	"city-tours/internal/models"
	"city-tours/internal/repository/memory"
	"city-tours/internal/storage"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	store  *memory.Store
	files  *storage.MemoryStorage
	tours  *TourService
	stops  *StopService
	images *ImageService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := memory.New().WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	files := storage.NewMemoryStorage("http://files.test")
	tours := NewTourService(store.Tours(), store.Stops(), store.Images(), files)
	return &fixture{
		store:  store,
		files:  files,
		tours:  tours,
		stops:  NewStopService(store.Stops(), tours),
		images: NewImageService(store.Images(), store.Tours(), files, 0),
	}
}

func (f *fixture) tour(t *testing.T, owner string) *models.Tour {
	t.Helper()
	tour, err := f.tours.CreateTour(context.Background(), models.TourInput{
		Title:       "Sevilla monumental",
		Description: "Catedral, Giralda y Alcázar",
		City:        "Sevilla",
		Price:       "25",
	}, owner)
	require.NoError(t, err)
	return tour
}

func (f *fixture) stop(t *testing.T, tourID string, title string, order string) *models.Stop {
	t.Helper()
	stop, err := f.stops.CreateStop(context.Background(), models.StopInput{
		TourID:      tourID,
		Title:       title,
		Description: "desc " + title,
		Latitude:    "37.3886",
		Longitude:   "-5.9823",
		StopOrder:   models.FormValue(order),
	})
	require.NoError(t, err)
	return stop
}

func ptr[T any](v T) *T { return &v }

// failingStops fails DeleteByTour to exercise cascade aborts
type failingStops struct {
	StopStore
	err error
}

func (f failingStops) DeleteByTour(context.Context, string) (int64, error) {
	return 0, f.err
}

type failingImages struct {
	ImageStore
	err error
}

func (f failingImages) DeleteByTour(context.Context, string) (int64, error) {
	return 0, f.err
}

func storageKey(f *fixture, url string) (string, bool) {
	return storage.KeyFromURL(f.files, url)
}
