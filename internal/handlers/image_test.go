package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"
	"testing"

	"city-tours/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageRoutes(t *testing.T) {
	api := newTestAPI(t)
	owner, _ := api.signUp(t, "ana@b.com")
	other, _ := api.signUp(t, "bob@b.com")
	tourID := api.createTour(t, owner)

	upload := services.ImageUpload{
		FileName:    "Giralda de noche.png",
		ContentType: "image/png",
		Data:        "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes")),
	}

	status, _ := api.do(t, http.MethodPost, "/api/v1/tours/"+tourID+"/images", other, upload)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := api.do(t, http.MethodPost, "/api/v1/tours/"+tourID+"/images", owner, upload)
	require.Equal(t, http.StatusCreated, status, string(body))
	var image struct {
		ID     string `json:"id"`
		TourID string `json:"idtour"`
		Imagen string `json:"imagen"`
	}
	api.decode(t, body, &image)
	assert.Equal(t, tourID, image.TourID)
	assert.True(t, strings.HasPrefix(image.Imagen, "http://files.test/tours/"), image.Imagen)

	var tour struct {
		Imagenes string `json:"imagenes"`
	}
	_, body = api.do(t, http.MethodGet, "/api/v1/tours/"+tourID, "", nil)
	api.decode(t, body, &tour)
	assert.Equal(t, image.Imagen, tour.Imagenes)

	var images []any
	_, body = api.do(t, http.MethodGet, "/api/v1/tours/"+tourID+"/images", "", nil)
	api.decode(t, body, &images)
	assert.Len(t, images, 1)

	status, _ = api.do(t, http.MethodDelete, "/api/v1/images/"+image.ID, other, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = api.do(t, http.MethodDelete, "/api/v1/images/"+image.ID, owner, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = api.do(t, http.MethodDelete, "/api/v1/images/"+image.ID, owner, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestImageRoutes_RejectsLargeAndForeignTypes(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signUp(t, "ana@b.com")
	tourID := api.createTour(t, token)

	status, body := api.do(t, http.MethodPost, "/api/v1/tours/"+tourID+"/images", token, services.ImageUpload{
		FileName:    "notes.txt",
		ContentType: "text/plain",
		Data:        base64.StdEncoding.EncodeToString([]byte("hello")),
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation", errorKind(t, body))

	status, body = api.do(t, http.MethodPost, "/api/v1/tours/"+tourID+"/images", token, services.ImageUpload{
		FileName:    "big.png",
		ContentType: "image/png",
		Data:        base64.StdEncoding.EncodeToString(make([]byte, 4<<10)),
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation", errorKind(t, body))
}
