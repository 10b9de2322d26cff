package handlers

import (
	"net/http"
	"strconv"

	"city-tours/internal/middleware"
	"city-tours/internal/models"
	"city-tours/internal/services"

	"github.com/go-chi/chi/v5"
)

// TourHandler handles tour HTTP requests
type TourHandler struct {
	tours   *services.TourService
	stops   *services.StopService
	maps    *services.MapService
	reports *services.ReportService
}

// NewTourHandler creates a new tour handler
func NewTourHandler(
	tours *services.TourService,
	stops *services.StopService,
	maps *services.MapService,
	reports *services.ReportService,
) *TourHandler {
	return &TourHandler{
		tours:   tours,
		stops:   stops,
		maps:    maps,
		reports: reports,
	}
}

// ListTours handles GET /api/v1/tours
func (h *TourHandler) ListTours(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tours, err := h.tours.ListTours(r.Context(), models.TourFilter{
		City:      q.Get("city"),
		CreatedBy: q.Get("created_by"),
	})
	if err != nil {
		respondServiceError(w, r, err, "Failed to list tours")
		return
	}
	respondJSON(w, http.StatusOK, tours)
}

// GetTour handles GET /api/v1/tours/{tour_id}
func (h *TourHandler) GetTour(w http.ResponseWriter, r *http.Request) {
	tour, err := h.tours.GetTour(r.Context(), chi.URLParam(r, "tour_id"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get tour")
		return
	}
	respondJSON(w, http.StatusOK, tour)
}

// CreateTour handles POST /api/v1/tours
func (h *TourHandler) CreateTour(w http.ResponseWriter, r *http.Request) {
	var input models.TourInput
	if err := decodeJSON(w, r, &input); err != nil {
		respondServiceError(w, r, err, "Invalid request body")
		return
	}

	tour, err := h.tours.CreateTour(r.Context(), input, middleware.GetUserID(r.Context()))
	if err != nil {
		respondServiceError(w, r, err, "Failed to create tour")
		return
	}
	respondJSON(w, http.StatusCreated, tour)
}

// UpdateTour handles PATCH /api/v1/tours/{tour_id}
func (h *TourHandler) UpdateTour(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tourID := chi.URLParam(r, "tour_id")

	if _, err := h.tours.AuthorizeTourOwner(ctx, tourID, middleware.GetUserID(ctx)); err != nil {
		respondServiceError(w, r, err, "Failed to update tour")
		return
	}

	var patch models.TourPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondServiceError(w, r, err, "Invalid request body")
		return
	}

	tour, err := h.tours.UpdateTour(ctx, tourID, patch)
	if err != nil {
		respondServiceError(w, r, err, "Failed to update tour")
		return
	}
	respondJSON(w, http.StatusOK, tour)
}

// DeleteTour handles DELETE /api/v1/tours/{tour_id}
func (h *TourHandler) DeleteTour(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tourID := chi.URLParam(r, "tour_id")

	if _, err := h.tours.AuthorizeTourOwner(ctx, tourID, middleware.GetUserID(ctx)); err != nil {
		respondServiceError(w, r, err, "Failed to delete tour")
		return
	}

	if err := h.tours.DeleteTour(ctx, tourID); err != nil {
		respondServiceError(w, r, err, "Failed to delete tour")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListStops handles GET /api/v1/tours/{tour_id}/stops
func (h *TourHandler) ListStops(w http.ResponseWriter, r *http.Request) {
	stops, err := h.stops.ListStopsByTour(r.Context(), chi.URLParam(r, "tour_id"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to list stops")
		return
	}
	respondJSON(w, http.StatusOK, stops)
}

// Map handles GET /api/v1/tours/{tour_id}/map
func (h *TourHandler) Map(w http.ResponseWriter, r *http.Request) {
	view, err := h.maps.MapView(r.Context(), chi.URLParam(r, "tour_id"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to build map")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Report handles GET /api/v1/tours/{tour_id}/report
func (h *TourHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.Report(r.Context(), chi.URLParam(r, "tour_id"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to generate report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.FileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(report.Content)))
	w.WriteHeader(http.StatusOK)
	w.Write(report.Content)
}
