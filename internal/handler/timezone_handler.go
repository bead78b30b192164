package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-booking-api/internal/dto"
	"github.com/noah-isme/tutor-booking-api/internal/timezone"
	"github.com/noah-isme/tutor-booking-api/pkg/response"
)

// TimezoneHandler lists the zones clients may search from.
type TimezoneHandler struct {
	registry *timezone.Registry
}

// NewTimezoneHandler builds a new handler.
func NewTimezoneHandler(registry *timezone.Registry) *TimezoneHandler {
	return &TimezoneHandler{registry: registry}
}

// List godoc
// @Summary List supported client zones
// @Tags Timezones
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timezones [get]
func (h *TimezoneHandler) List(c *gin.Context) {
	ops := h.registry.Operations().ID
	descriptors := h.registry.List()
	items := make([]dto.TimezoneItem, 0, len(descriptors))
	for _, d := range descriptors {
		items = append(items, dto.TimezoneItem{
			ID:          d.ID,
			Label:       d.Label,
			IANA:        d.IANA,
			OffsetHours: d.OffsetHours,
			Operations:  d.ID == ops,
		})
	}
	response.List(c, items, len(items), nil)
}
