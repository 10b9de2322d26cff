package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"city-tours/internal/models"

	"github.com/rs/zerolog/log"
)

const maxJSONBody = 1 << 20

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string      `json:"error"`
	Kind  models.Kind `json:"kind"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, kind models.Kind, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Kind: kind})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps an error kind to its HTTP status
func statusFor(kind models.Kind) int {
	switch kind {
	case models.KindValidation:
		return http.StatusBadRequest
	case models.KindUnauthorized:
		return http.StatusUnauthorized
	case models.KindForbidden:
		return http.StatusForbidden
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindConflict:
		return http.StatusConflict
	case models.KindRemote:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes err using its kind. Internal errors are logged and
// answered with fallback so driver details never reach the client.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	kind := models.KindOf(err)
	status := statusFor(kind)

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg(fallback)
		if kind == models.KindRemote {
			respondError(w, models.MessageOf(err, fallback), kind, status)
			return
		}
		respondError(w, fallback, models.KindInternal, status)
		return
	}

	log.Debug().Err(err).Str("path", r.URL.Path).Msg("Request rejected")
	respondError(w, models.MessageOf(err, fallback), kind, status)
}

// decodeJSON reads a JSON body into v; an empty body is a validation error
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return decodeJSONLimit(w, r, v, maxJSONBody)
}

func decodeJSONLimit(w http.ResponseWriter, r *http.Request, v any, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return models.NewValidationError("request body is required")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return models.NewValidationError("request body too large")
		}
		return models.NewValidationError("invalid request body")
	}
	return nil
}
