package services

import (
	"bytes"
	"context"
	"testing"

	"city-tours/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport(t *testing.T) {
	f := newFixture(t)
	reports := NewReportService(f.tours, f.stops)
	tour := f.tour(t, "u1")
	f.stop(t, tour.ID, "Catedral", "1")
	f.stop(t, tour.ID, "Giralda", "2")

	report, err := reports.Report(context.Background(), tour.ID)
	require.NoError(t, err)
	assert.Equal(t, "sevilla-monumental.pdf", report.FileName)
	assert.True(t, bytes.HasPrefix(report.Content, []byte("%PDF")))
}

func TestReport_EmptyTourAndMissing(t *testing.T) {
	f := newFixture(t)
	reports := NewReportService(f.tours, f.stops)
	tour := f.tour(t, "u1")

	report, err := reports.Report(context.Background(), tour.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, report.Content)

	_, err = reports.Report(context.Background(), "missing")
	assert.True(t, models.IsNotFound(err))
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "10.00 €", formatPrice(10))
	assert.Equal(t, "sin especificar", formatDuration(0))
	assert.Equal(t, "90 min", formatDuration(90))
}
