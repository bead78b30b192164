package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/service"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
	"github.com/noah-isme/tutor-booking-api/pkg/response"
)

type availabilitySearcher interface {
	SearchAvailableSlots(ctx context.Context, req models.SlotSearchRequest) (*models.SlotSearchResult, error)
}

type availabilityExporter interface {
	ExportSlots(ctx context.Context, req models.SlotSearchRequest, format string) (*service.ExportFile, error)
}

// AvailabilityHandler exposes the client-facing slot search.
type AvailabilityHandler struct {
	search   availabilitySearcher
	exporter availabilityExporter
}

// NewAvailabilityHandler builds a new handler.
func NewAvailabilityHandler(search availabilitySearcher, exporter availabilityExporter) *AvailabilityHandler {
	return &AvailabilityHandler{search: search, exporter: exporter}
}

// Search godoc
// @Summary Search bookable trial slots around a client's local time
// @Tags Availability
// @Produce json
// @Param date query string true "Client local date (YYYY-MM-DD)"
// @Param timezone query string true "Client zone id, e.g. saudi"
// @Param time query string true "Client local time (HH:MM or hour)"
// @Param teacher_type query string false "kids, adult, mixed or expert"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /availability/slots [get]
func (h *AvailabilityHandler) Search(c *gin.Context) {
	var req models.SlotSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrInvalidSearchParameters, "invalid search query"))
		return
	}
	result, err := h.search.SearchAvailableSlots(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, result.Slots, len(result.Slots), map[string]interface{}{
		"client_timezone": result.ClientTimezone,
		"local_date":      result.LocalDate,
		"local_time":      result.LocalTime,
		"utc_date":        result.UTCDate,
		"day_shift":       result.DayShift,
		"window":          window(result.Query),
	})
}

// Export godoc
// @Summary Download the slot search as a PDF or CSV sheet
// @Tags Availability
// @Produce application/pdf
// @Produce text/csv
// @Param date query string true "Client local date (YYYY-MM-DD)"
// @Param timezone query string true "Client zone id"
// @Param time query string true "Client local time"
// @Param teacher_type query string false "Teacher type filter"
// @Param format query string false "pdf (default) or csv"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /availability/slots/export [get]
func (h *AvailabilityHandler) Export(c *gin.Context) {
	var req models.SlotSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrInvalidSearchParameters, "invalid search query"))
		return
	}
	file, err := h.exporter.ExportSlots(c.Request.Context(), req, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

func window(q models.AvailabilityQuery) []string {
	from, to := q.Window()
	return []string{from, to}
}
