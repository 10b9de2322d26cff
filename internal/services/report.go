package services

import (
	"context"
	"fmt"
	"strconv"

	"city-tours/internal/models"

	"github.com/gosimple/slug"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// Report is a generated PDF document
type Report struct {
	FileName string
	Content  []byte
}

// ReportService renders tour reports
type ReportService struct {
	tours *TourService
	stops *StopService
}

// NewReportService creates a new report service
func NewReportService(tours *TourService, stops *StopService) *ReportService {
	return &ReportService{tours: tours, stops: stops}
}

// Report renders the tour and its stops as a PDF
func (s *ReportService) Report(ctx context.Context, tourID string) (*Report, error) {
	tour, err := s.tours.GetTour(ctx, tourID)
	if err != nil {
		return nil, err
	}
	stops, err := s.stops.ListStopsByTour(ctx, tour.ID)
	if err != nil {
		return nil, err
	}

	content, err := renderReport(tour, stops)
	if err != nil {
		return nil, models.NewInternalError("failed to generate report", err)
	}

	name := slug.Make(tour.Title)
	if name == "" {
		name = "tour"
	}
	return &Report{FileName: name + ".pdf", Content: content}, nil
}

func renderReport(tour *models.Tour, stops []*models.Stop) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Página {current} de {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(12, tour.Title, props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(24,
		col.New(8).Add(
			text.New("Ciudad: "+tour.City, props.Text{Top: 0}),
			text.New("Idioma: "+tour.Language, props.Text{Top: 5}),
			text.New("Precio: "+formatPrice(tour.Price), props.Text{Top: 10}),
			text.New("Duración: "+formatDuration(tour.Duration), props.Text{Top: 15}),
		),
		col.New(4),
	)

	m.AddRow(20,
		text.NewCol(12, tour.Description, props.Text{Size: 10}),
	)

	m.AddRow(12,
		text.NewCol(12, fmt.Sprintf("Paradas (%d)", len(stops)), props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   4,
		}),
	)

	if len(stops) == 0 {
		m.AddRow(10, text.NewCol(12, "Este tour todavía no tiene paradas.", props.Text{Size: 9}))
	}

	for i, st := range stops {
		m.AddRow(8,
			text.NewCol(12, fmt.Sprintf("%d. %s", i+1, st.Title), props.Text{Style: fontstyle.Bold, Size: 10}),
		)
		m.AddRow(14,
			col.New(8).Add(
				text.New(st.Description, props.Text{Size: 9}),
			),
			text.NewCol(4, fmt.Sprintf("%.5f, %.5f", st.Latitude, st.Longitude), props.Text{Size: 8, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64) + " €"
}

func formatDuration(minutes int) string {
	if minutes == 0 {
		return "sin especificar"
	}
	return fmt.Sprintf("%d min", minutes)
}
