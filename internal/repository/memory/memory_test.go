package memory

import (
	"context"
	"testing"
	"time"

	"city-tours/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(start time.Time, step time.Duration) func() time.Time {
	t := start
	return func() time.Time {
		cur := t
		t = t.Add(step)
		return cur
	}
}

func TestUsers_EmailUniqueCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	users := New().Users()

	require.NoError(t, users.Create(ctx, &models.Account{Email: "ana@example.com", PasswordHash: "x"}))
	err := users.Create(ctx, &models.Account{Email: "ANA@example.com", PasswordHash: "y"})
	assert.Equal(t, models.KindConflict, models.KindOf(err))

	got, err := users.GetByEmail(ctx, "Ana@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", got.Email)

	_, err = users.GetByID(ctx, "missing")
	assert.True(t, models.IsNotFound(err))
}

func TestTours_ListNewestFirstAndFilter(t *testing.T) {
	ctx := context.Background()
	store := New().WithClock(fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Minute))
	tours := store.Tours()

	first := &models.Tour{Title: "A", City: "Sevilla", CreatedBy: "u1"}
	second := &models.Tour{Title: "B", City: "Madrid", CreatedBy: "u2"}
	third := &models.Tour{Title: "C", City: "Sevilla", CreatedBy: "u2"}
	for _, tour := range []*models.Tour{first, second, third} {
		require.NoError(t, tours.Create(ctx, tour))
	}

	all, err := tours.List(ctx, models.TourFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"C", "B", "A"}, []string{all[0].Title, all[1].Title, all[2].Title})

	sevilla, err := tours.List(ctx, models.TourFilter{City: "Sevilla", CreatedBy: "u2"})
	require.NoError(t, err)
	require.Len(t, sevilla, 1)
	assert.Equal(t, third.ID, sevilla[0].ID)
}

func TestStops_OrderTieBreak(t *testing.T) {
	ctx := context.Background()
	// constant clock: every row shares the same created_at
	store := New().WithClock(fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 0))
	tour := &models.Tour{Title: "T"}
	require.NoError(t, store.Tours().Create(ctx, tour))

	stops := store.Stops()
	for _, s := range []struct {
		title string
		order int
	}{{"second-a", 2}, {"first", 1}, {"second-b", 2}} {
		require.NoError(t, stops.Create(ctx, &models.Stop{TourID: tour.ID, Title: s.title, StopOrder: s.order}))
	}

	got, err := stops.ListByTour(ctx, tour.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Title)
	assert.Equal(t, "second-a", got[1].Title)
	assert.Equal(t, "second-b", got[2].Title)
}

func TestStops_CreateRequiresTour(t *testing.T) {
	err := New().Stops().Create(context.Background(), &models.Stop{TourID: "nope", Title: "x"})
	assert.True(t, models.IsNotFound(err))
}

func TestTours_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	store := New()
	tour := &models.Tour{Title: "T"}
	other := &models.Tour{Title: "O"}
	require.NoError(t, store.Tours().Create(ctx, tour))
	require.NoError(t, store.Tours().Create(ctx, other))
	require.NoError(t, store.Stops().Create(ctx, &models.Stop{TourID: tour.ID, Title: "s1"}))
	require.NoError(t, store.Stops().Create(ctx, &models.Stop{TourID: other.ID, Title: "s2"}))
	require.NoError(t, store.Images().Create(ctx, &models.TourImage{TourID: tour.ID, Imagen: "a.png"}))

	require.NoError(t, store.Tours().Delete(ctx, tour.ID))

	stops, err := store.Stops().ListByTour(ctx, tour.ID)
	require.NoError(t, err)
	assert.Empty(t, stops)
	images, err := store.Images().ListByTour(ctx, tour.ID)
	require.NoError(t, err)
	assert.Empty(t, images)

	kept, err := store.Stops().ListByTour(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	assert.True(t, models.IsNotFound(store.Tours().Delete(ctx, tour.ID)))
}

func TestTours_UpdateReturnsCopy(t *testing.T) {
	ctx := context.Background()
	tours := New().Tours()
	tour := &models.Tour{Title: "T", Price: 10}
	require.NoError(t, tours.Create(ctx, tour))

	price := 12.5
	updated, err := tours.Update(ctx, tour.ID, models.TourUpdate{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 12.5, updated.Price)
	assert.Equal(t, "T", updated.Title)

	updated.Title = "mutated"
	stored, err := tours.GetByID(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, "T", stored.Title)
}

func TestProfiles_CreateUpdate(t *testing.T) {
	ctx := context.Background()
	profiles := New().Profiles()
	require.NoError(t, profiles.Create(ctx, &models.Profile{ID: "u1", Username: "ana"}))
	assert.Equal(t, models.KindConflict, models.KindOf(profiles.Create(ctx, &models.Profile{ID: "u1"})))

	name := "ana.g"
	p, err := profiles.Update(ctx, "u1", models.ProfilePatch{Username: &name})
	require.NoError(t, err)
	assert.Equal(t, "ana.g", p.Username)

	_, err = profiles.Update(ctx, "u2", models.ProfilePatch{Username: &name})
	assert.True(t, models.IsNotFound(err))
}
