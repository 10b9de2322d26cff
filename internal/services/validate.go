package services

import (
	"math"
	"strconv"
	"strings"

	"city-tours/internal/models"
)

const defaultLanguage = "Español"

func requiredText(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", models.NewValidationError("%s is required", field)
	}
	return v, nil
}

func parseNumber(field string, v models.FormValue) (float64, error) {
	if v.Empty() {
		return 0, models.NewValidationError("%s is required", field)
	}
	f, err := strconv.ParseFloat(v.String(), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, models.NewValidationError("%s must be a number", field)
	}
	return f, nil
}

func parsePrice(v models.FormValue) (float64, error) {
	price, err := parseNumber("price", v)
	if err != nil {
		return 0, err
	}
	if price < 0 {
		return 0, models.NewValidationError("price must not be negative")
	}
	return price, nil
}

// parseDuration treats a blank value as 0 minutes
func parseDuration(v models.FormValue) (int, error) {
	if v.Empty() {
		return 0, nil
	}
	d, err := parseInt32(v.String())
	if err != nil {
		return 0, models.NewValidationError("duration must be a whole number")
	}
	if d < 0 {
		return 0, models.NewValidationError("duration must not be negative")
	}
	return d, nil
}

func parseLatitude(v models.FormValue) (float64, error) {
	lat, err := parseNumber("latitude", v)
	if err != nil {
		return 0, err
	}
	if lat < -90 || lat > 90 {
		return 0, models.NewValidationError("latitude must be between -90 and 90")
	}
	return lat, nil
}

func parseLongitude(v models.FormValue) (float64, error) {
	lng, err := parseNumber("longitude", v)
	if err != nil {
		return 0, err
	}
	if lng < -180 || lng > 180 {
		return 0, models.NewValidationError("longitude must be between -180 and 180")
	}
	return lng, nil
}

func parseStopOrder(v models.FormValue) (int, error) {
	if v.Empty() {
		return 0, models.NewValidationError("stop_order is required")
	}
	n, err := parseInt32(v.String())
	if err != nil {
		return 0, models.NewValidationError("stop_order must be a whole number")
	}
	return n, nil
}

// parseInt32 accepts only values that fit an INTEGER column
func parseInt32(s string) (int, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func languageOrDefault(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return defaultLanguage
	}
	return s
}
