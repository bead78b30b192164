package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/timezone"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
	"github.com/noah-isme/tutor-booking-api/pkg/export"
)

// Supported export formats.
const (
	ExportFormatPDF = "pdf"
	ExportFormatCSV = "csv"
)

type slotSearcher interface {
	SearchAvailableSlots(ctx context.Context, req models.SlotSearchRequest) (*models.SlotSearchResult, error)
}

type sheetRenderer interface {
	Render(sheet export.Sheet) ([]byte, error)
}

// ExportFile is a rendered document ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders availability searches as shareable sheets.
type ExportService struct {
	search   slotSearcher
	registry *timezone.Registry
	csv      sheetRenderer
	pdf      sheetRenderer
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(search slotSearcher, registry *timezone.Registry, logger *zap.Logger, csv, pdf sheetRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{search: search, registry: registry, csv: csv, pdf: pdf, logger: logger}
}

// ExportSlots runs the search and renders its slots in the requested format.
func (s *ExportService) ExportSlots(ctx context.Context, req models.SlotSearchRequest, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatPDF
	}
	var (
		renderer    sheetRenderer
		contentType string
	)
	switch format {
	case ExportFormatPDF:
		renderer, contentType = s.pdf, "application/pdf"
	case ExportFormatCSV:
		renderer, contentType = s.csv, "text/csv"
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidSearchParameters, fmt.Sprintf("unsupported format %q", format))
	}

	result, err := s.search.SearchAvailableSlots(ctx, req)
	if err != nil {
		return nil, err
	}

	data, err := renderer.Render(s.buildSheet(result))
	if err != nil {
		s.logger.Error("failed to render availability sheet", zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("availability_%s_%s_%s.%s", result.ClientTimezone, result.LocalDate, strings.ReplaceAll(result.LocalTime, ":", ""), format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func (s *ExportService) buildSheet(result *models.SlotSearchResult) export.Sheet {
	ops := s.registry.Operations()
	headers := []string{"Client day", "Client time", ops.Label + " time", "UTC", "Teachers"}
	rows := make([]map[string]string, 0, len(result.Slots))
	for _, slot := range result.Slots {
		names := make([]string, len(slot.Teachers))
		for i, t := range slot.Teachers {
			names[i] = fmt.Sprintf("%s (%s)", t.TeacherName, t.TeacherType)
		}
		rows = append(rows, map[string]string{
			headers[0]: slot.ClientDay,
			headers[1]: slot.ClientDisplay,
			headers[2]: slot.OperationsDisplay,
			headers[3]: fmt.Sprintf("%s %s-%s", slot.Date, slot.UTCStartTime, slot.UTCEndTime),
			headers[4]: strings.Join(names, ", "),
		})
	}
	return export.Sheet{
		Title: "Open trial slots",
		Notes: []string{
			fmt.Sprintf("Client zone: %s, %s at %s", result.ClientTimezone, result.LocalDate, result.LocalTime),
			searchedWindow(result.Query),
		},
		Dataset: export.Dataset{Headers: headers, Rows: rows},
	}
}

func searchedWindow(q models.AvailabilityQuery) string {
	from, to := q.Window()
	return fmt.Sprintf("Searched UTC window: %s to %s", from, to)
}
