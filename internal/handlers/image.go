package handlers

import (
	"net/http"

	"city-tours/internal/middleware"
	"city-tours/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ImageHandler handles tour image HTTP requests
type ImageHandler struct {
	tours  *services.TourService
	images *services.ImageService
}

// NewImageHandler creates a new image handler
func NewImageHandler(tours *services.TourService, images *services.ImageService) *ImageHandler {
	return &ImageHandler{tours: tours, images: images}
}

// ListImages handles GET /api/v1/tours/{tour_id}/images
func (h *ImageHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.images.List(r.Context(), chi.URLParam(r, "tour_id"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to list images")
		return
	}
	respondJSON(w, http.StatusOK, images)
}

// UploadImage handles POST /api/v1/tours/{tour_id}/images
func (h *ImageHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	tourID := chi.URLParam(r, "tour_id")

	if _, err := h.tours.AuthorizeTourOwner(ctx, tourID, userID); err != nil {
		respondServiceError(w, r, err, "Failed to upload image")
		return
	}

	// base64 grows the payload by a third
	limit := h.images.MaxBytes()*4/3 + 4096
	var upload services.ImageUpload
	if err := decodeJSONLimit(w, r, &upload, limit); err != nil {
		respondServiceError(w, r, err, "Invalid request body")
		return
	}

	image, err := h.images.Upload(ctx, tourID, upload)
	if err != nil {
		respondServiceError(w, r, err, "Failed to upload image")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("tour_id", tourID).
		Str("image_id", image.ID).
		Msg("Tour image uploaded")

	respondJSON(w, http.StatusCreated, image)
}

// DeleteImage handles DELETE /api/v1/images/{image_id}
func (h *ImageHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	imageID := chi.URLParam(r, "image_id")

	image, err := h.images.Get(ctx, imageID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to delete image")
		return
	}
	if _, err := h.tours.AuthorizeTourOwner(ctx, image.TourID, middleware.GetUserID(ctx)); err != nil {
		respondServiceError(w, r, err, "Failed to delete image")
		return
	}

	if err := h.images.Delete(ctx, imageID); err != nil {
		respondServiceError(w, r, err, "Failed to delete image")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
