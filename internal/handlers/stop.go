package handlers

import (
	"net/http"

	"city-tours/internal/middleware"
	"city-tours/internal/models"
	"city-tours/internal/services"

	"github.com/go-chi/chi/v5"
)

// StopHandler handles stop HTTP requests
type StopHandler struct {
	tours *services.TourService
	stops *services.StopService
}

// NewStopHandler creates a new stop handler
func NewStopHandler(tours *services.TourService, stops *services.StopService) *StopHandler {
	return &StopHandler{tours: tours, stops: stops}
}

// CreateStop handles POST /api/v1/stops
func (h *StopHandler) CreateStop(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input models.StopInput
	if err := decodeJSON(w, r, &input); err != nil {
		respondServiceError(w, r, err, "Invalid request body")
		return
	}

	if input.TourID == "" {
		respondError(w, "tour_id is required", models.KindValidation, http.StatusBadRequest)
		return
	}
	if _, err := h.tours.AuthorizeTourOwner(ctx, input.TourID, middleware.GetUserID(ctx)); err != nil {
		respondServiceError(w, r, err, "Failed to create stop")
		return
	}

	stop, err := h.stops.CreateStop(ctx, input)
	if err != nil {
		respondServiceError(w, r, err, "Failed to create stop")
		return
	}
	respondJSON(w, http.StatusCreated, stop)
}

// GetStop handles GET /api/v1/stops/{stop_id}
func (h *StopHandler) GetStop(w http.ResponseWriter, r *http.Request) {
	stop, err := h.stops.GetStop(r.Context(), chi.URLParam(r, "stop_id"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get stop")
		return
	}
	respondJSON(w, http.StatusOK, stop)
}

// UpdateStop handles PATCH /api/v1/stops/{stop_id}
func (h *StopHandler) UpdateStop(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stopID := chi.URLParam(r, "stop_id")

	if _, err := h.stops.AuthorizeStopOwner(ctx, stopID, middleware.GetUserID(ctx)); err != nil {
		respondServiceError(w, r, err, "Failed to update stop")
		return
	}

	var patch models.StopPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondServiceError(w, r, err, "Invalid request body")
		return
	}

	stop, err := h.stops.UpdateStop(ctx, stopID, patch)
	if err != nil {
		respondServiceError(w, r, err, "Failed to update stop")
		return
	}
	respondJSON(w, http.StatusOK, stop)
}

// DeleteStop handles DELETE /api/v1/stops/{stop_id}
func (h *StopHandler) DeleteStop(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stopID := chi.URLParam(r, "stop_id")

	if _, err := h.stops.AuthorizeStopOwner(ctx, stopID, middleware.GetUserID(ctx)); err != nil {
		respondServiceError(w, r, err, "Failed to delete stop")
		return
	}

	if err := h.stops.DeleteStop(ctx, stopID); err != nil {
		respondServiceError(w, r, err, "Failed to delete stop")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
