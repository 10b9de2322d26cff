package services

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"city-tours/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageUpload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.images.now = func() time.Time { return time.UnixMilli(1700000000000) }
	tour := f.tour(t, "u1")

	img, err := f.images.Upload(ctx, tour.ID, ImageUpload{
		FileName:    "Plaza de España.JPG",
		ContentType: "image/jpeg",
		Data:        base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")),
	})
	require.NoError(t, err)
	assert.Equal(t, "http://files.test/tours/1700000000000_plaza-de-espana.jpg", img.Imagen)

	obj, ok := f.files.Get("tours/1700000000000_plaza-de-espana.jpg")
	require.True(t, ok)
	assert.Equal(t, []byte("jpeg-bytes"), obj.Data)
	assert.Equal(t, "image/jpeg", obj.ContentType)

	updated, err := f.tours.GetTour(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, img.Imagen, updated.Imagenes)

	second, err := f.images.Upload(ctx, tour.ID, ImageUpload{
		FileName: "torre.png",
		Data:     "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png")),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(second.Imagen, "_torre.png"))

	updated, err = f.tours.GetTour(ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, img.Imagen, updated.Imagenes, "cover keeps the first image")

	images, err := f.images.List(ctx, tour.ID)
	require.NoError(t, err)
	assert.Len(t, images, 2)
}

func TestImageUpload_Validation(t *testing.T) {
	f := newFixture(t)
	f.images.maxBytes = 4
	tour := f.tour(t, "u1")

	tests := []struct {
		name   string
		upload ImageUpload
	}{
		{"not an image", ImageUpload{ContentType: "application/pdf", Data: "aGk="}},
		{"no content type", ImageUpload{Data: "aGk="}},
		{"empty data", ImageUpload{ContentType: "image/png"}},
		{"bad base64", ImageUpload{ContentType: "image/png", Data: "***"}},
		{"too large", ImageUpload{ContentType: "image/png", Data: base64.StdEncoding.EncodeToString([]byte("12345"))}},
		{"data url without base64", ImageUpload{Data: "data:image/png,raw"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.images.Upload(context.Background(), tour.ID, tt.upload)
			assert.True(t, models.IsValidation(err), "got %v", err)
		})
	}

	_, err := f.images.Upload(context.Background(), "missing", ImageUpload{ContentType: "image/png", Data: "aGk="})
	assert.True(t, models.IsNotFound(err))
}

func TestImageDelete_ResetsCover(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tour := f.tour(t, "u1")

	first, err := f.images.Upload(ctx, tour.ID, ImageUpload{FileName: "a.png", ContentType: "image/png", Data: "YQ=="})
	require.NoError(t, err)

	require.NoError(t, f.images.Delete(ctx, first.ID))

	updated, err := f.tours.GetTour(ctx, tour.ID)
	require.NoError(t, err)
	assert.Empty(t, updated.Imagenes)

	key, ok := storageKey(f, first.Imagen)
	require.True(t, ok)
	_, stored := f.files.Get(key)
	assert.False(t, stored)

	assert.True(t, models.IsNotFound(f.images.Delete(ctx, first.ID)))
}
