package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/timezone"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
	"github.com/noah-isme/tutor-booking-api/pkg/export"
)

type stubSearcher struct {
	result *models.SlotSearchResult
	err    error
}

func (s *stubSearcher) SearchAvailableSlots(ctx context.Context, req models.SlotSearchRequest) (*models.SlotSearchResult, error) {
	return s.result, s.err
}

type capturingRenderer struct {
	sheet export.Sheet
}

func (c *capturingRenderer) Render(sheet export.Sheet) ([]byte, error) {
	c.sheet = sheet
	return []byte("rendered"), nil
}

func sampleSearchResult() *models.SlotSearchResult {
	return &models.SlotSearchResult{
		ClientTimezone: "saudi",
		LocalDate:      "2025-06-24",
		LocalTime:      "19:00",
		UTCDate:        "2025-06-24",
		Query:          models.AvailabilityQuery{Ranges: []models.SlotRange{{StartTime: "15:00", EndTime: "18:00"}}},
		Slots: []models.AggregatedTimeSlot{{
			Date:              "2025-06-24",
			UTCStartTime:      "16:00",
			UTCEndTime:        "16:30",
			ClientDisplay:     "7:00 PM-7:30 PM",
			ClientDay:         "Tuesday, Jun 24",
			OperationsDisplay: "7:00 PM-7:30 PM (Egypt)",
			Teachers: []models.SlotTeacher{
				{TeacherID: "t1", TeacherName: "Amal", TeacherType: models.TeacherTypeKids},
				{TeacherID: "t2", TeacherName: "Basma", TeacherType: models.TeacherTypeMixed},
			},
		}},
	}
}

func TestExportSlotsCSV(t *testing.T) {
	csv := &capturingRenderer{}
	svc := NewExportService(&stubSearcher{result: sampleSearchResult()}, timezone.MustDefaultRegistry(), nil, csv, &capturingRenderer{})

	file, err := svc.ExportSlots(context.Background(), models.SlotSearchRequest{}, "CSV")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "availability_saudi_2025-06-24_1900.csv", file.Filename)
	require.Len(t, csv.sheet.Rows, 1)
	row := csv.sheet.Rows[0]
	assert.Equal(t, "Amal (kids), Basma (mixed)", row["Teachers"])
	assert.Equal(t, "7:00 PM-7:30 PM (Egypt)", row["Egypt time"])
	assert.Equal(t, "2025-06-24 16:00-16:30", row["UTC"])
}

func TestExportSlotsDefaultsToPDF(t *testing.T) {
	pdf := &capturingRenderer{}
	svc := NewExportService(&stubSearcher{result: sampleSearchResult()}, timezone.MustDefaultRegistry(), nil, &capturingRenderer{}, pdf)

	file, err := svc.ExportSlots(context.Background(), models.SlotSearchRequest{}, "")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, "Open trial slots", pdf.sheet.Title)
}

func TestExportSlotsErrors(t *testing.T) {
	svc := NewExportService(&stubSearcher{result: sampleSearchResult()}, timezone.MustDefaultRegistry(), nil, nil, nil)
	_, err := svc.ExportSlots(context.Background(), models.SlotSearchRequest{}, "xlsx")
	assert.True(t, errors.Is(err, appErrors.ErrInvalidSearchParameters))

	failing := NewExportService(&stubSearcher{err: appErrors.Clone(appErrors.ErrInvalidTimezone, "unknown")}, timezone.MustDefaultRegistry(), nil, nil, nil)
	_, err = failing.ExportSlots(context.Background(), models.SlotSearchRequest{}, "pdf")
	assert.True(t, errors.Is(err, appErrors.ErrInvalidTimezone))
}
