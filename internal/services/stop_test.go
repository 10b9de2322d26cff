package services

import (
	"context"
	"testing"
	"time"

	"city-tours/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListStopsByTour_Order(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tour := f.tour(t, "u1")

	f.stop(t, tour.ID, "tres", "3")
	f.stop(t, tour.ID, "uno", "1")
	f.stop(t, tour.ID, "dos", "2")

	stops, err := f.stops.ListStopsByTour(ctx, tour.ID)
	require.NoError(t, err)
	require.Len(t, stops, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{stops[0].StopOrder, stops[1].StopOrder, stops[2].StopOrder})
}

func TestListStopsByTour_DuplicateOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tour := f.tour(t, "u1")

	f.stop(t, tour.ID, "b-first", "2")
	f.stop(t, tour.ID, "a", "1")
	f.stop(t, tour.ID, "b-second", "2")

	stops, err := f.stops.ListStopsByTour(ctx, tour.ID)
	require.NoError(t, err)
	require.Len(t, stops, 3)
	assert.Equal(t, "a", stops[0].Title)
	assert.Equal(t, "b-first", stops[1].Title)
	assert.Equal(t, "b-second", stops[2].Title)
}

func TestSortStops_FullTieKeepsOrder(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stops := []*models.Stop{
		{Title: "x", StopOrder: 1, CreatedAt: at},
		{Title: "y", StopOrder: 1, CreatedAt: at},
		{Title: "z", StopOrder: 0, CreatedAt: at},
	}
	sortStops(stops)
	assert.Equal(t, "z", stops[0].Title)
	assert.Equal(t, "x", stops[1].Title)
	assert.Equal(t, "y", stops[2].Title)
}

func TestListStopsByTour_UnknownTourIsEmpty(t *testing.T) {
	f := newFixture(t)
	stops, err := f.stops.ListStopsByTour(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, stops)
	assert.Empty(t, stops)
}

func TestCreateStop_Validation(t *testing.T) {
	f := newFixture(t)
	tour := f.tour(t, "u1")
	valid := models.StopInput{
		TourID: tour.ID, Title: "S", Description: "D",
		Latitude: "37.3886", Longitude: "-5.9823", StopOrder: "1",
	}

	tests := []struct {
		name    string
		mutate  func(in *models.StopInput)
		wantErr bool
	}{
		{"valid", func(in *models.StopInput) {}, false},
		{"latitude 90", func(in *models.StopInput) { in.Latitude = "90" }, false},
		{"latitude -90", func(in *models.StopInput) { in.Latitude = "-90" }, false},
		{"latitude 91", func(in *models.StopInput) { in.Latitude = "91" }, true},
		{"latitude -90.0001", func(in *models.StopInput) { in.Latitude = "-90.0001" }, true},
		{"longitude 180", func(in *models.StopInput) { in.Longitude = "180" }, false},
		{"longitude 181", func(in *models.StopInput) { in.Longitude = "181" }, true},
		{"latitude text", func(in *models.StopInput) { in.Latitude = "norte" }, true},
		{"missing latitude", func(in *models.StopInput) { in.Latitude = "" }, true},
		{"missing tour", func(in *models.StopInput) { in.TourID = "" }, true},
		{"missing title", func(in *models.StopInput) { in.Title = " " }, true},
		{"missing description", func(in *models.StopInput) { in.Description = "" }, true},
		{"fractional order", func(in *models.StopInput) { in.StopOrder = "1.5" }, true},
		{"missing order", func(in *models.StopInput) { in.StopOrder = "" }, true},
		{"largest integer order", func(in *models.StopInput) { in.StopOrder = "2147483647" }, false},
		{"order past integer range", func(in *models.StopInput) { in.StopOrder = "2147483648" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			stop, err := f.stops.CreateStop(context.Background(), in)
			if tt.wantErr {
				assert.True(t, models.IsValidation(err), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tour.ID, stop.TourID)
		})
	}
}

func TestCreateStop_UnknownTour(t *testing.T) {
	f := newFixture(t)
	_, err := f.stops.CreateStop(context.Background(), models.StopInput{
		TourID: "missing", Title: "S", Description: "D",
		Latitude: "1", Longitude: "1", StopOrder: "1",
	})
	assert.True(t, models.IsNotFound(err))
}

func TestUpdateAndDeleteStop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tour := f.tour(t, "u1")
	stop := f.stop(t, tour.ID, "S", "1")

	updated, err := f.stops.UpdateStop(ctx, stop.ID, models.StopPatch{
		StopOrder: ptr(models.FormValue("5")),
		Latitude:  ptr(models.FormValue("40.4168")),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.StopOrder)
	assert.Equal(t, 40.4168, updated.Latitude)
	assert.Equal(t, stop.Title, updated.Title)

	_, err = f.stops.UpdateStop(ctx, stop.ID, models.StopPatch{Longitude: ptr(models.FormValue("-181"))})
	assert.True(t, models.IsValidation(err))

	_, err = f.stops.UpdateStop(ctx, stop.ID, models.StopPatch{})
	assert.True(t, models.IsValidation(err))

	require.NoError(t, f.stops.DeleteStop(ctx, stop.ID))
	_, err = f.stops.GetStop(ctx, stop.ID)
	assert.True(t, models.IsNotFound(err))
	assert.True(t, models.IsNotFound(f.stops.DeleteStop(ctx, stop.ID)))
}

func TestAuthorizeStopOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tour := f.tour(t, "u1")
	stop := f.stop(t, tour.ID, "S", "1")

	_, err := f.stops.AuthorizeStopOwner(ctx, stop.ID, "u1")
	assert.NoError(t, err)

	_, err = f.stops.AuthorizeStopOwner(ctx, stop.ID, "u2")
	assert.Equal(t, models.KindForbidden, models.KindOf(err))

	_, err = f.stops.AuthorizeStopOwner(ctx, "missing", "u1")
	assert.True(t, models.IsNotFound(err))
}
