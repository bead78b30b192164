package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
	"github.com/noah-isme/tutor-booking-api/pkg/response"
)

type teacherAvailabilityService interface {
	ListSlots(ctx context.Context, actor models.Actor, teacherID, from, to string) ([]models.TeacherSlot, error)
	OpenSlots(ctx context.Context, actor models.Actor, teacherID string, req models.UpdateAvailabilityRequest) error
	CloseSlots(ctx context.Context, actor models.Actor, teacherID string, req models.UpdateAvailabilityRequest) error
}

// TeacherAvailabilityHandler lets teachers manage their own calendar.
type TeacherAvailabilityHandler struct {
	service teacherAvailabilityService
}

// NewTeacherAvailabilityHandler builds a new handler.
func NewTeacherAvailabilityHandler(service teacherAvailabilityService) *TeacherAvailabilityHandler {
	return &TeacherAvailabilityHandler{service: service}
}

// List godoc
// @Summary List a teacher's slots in the teacher's zone
// @Tags Teacher Availability
// @Produce json
// @Param id path string true "Teacher ID"
// @Param from query string true "First local date (YYYY-MM-DD)"
// @Param to query string false "Last local date, defaults to from"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/availability [get]
func (h *TeacherAvailabilityHandler) List(c *gin.Context) {
	slots, err := h.service.ListSlots(c.Request.Context(), actorFromContext(c), c.Param("id"), c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, slots, len(slots), nil)
}

// Open godoc
// @Summary Open local half-hour slots
// @Tags Teacher Availability
// @Accept json
// @Param id path string true "Teacher ID"
// @Param payload body models.UpdateAvailabilityRequest true "Local date and slots"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Failure 423 {object} response.Envelope
// @Router /teachers/{id}/availability [put]
func (h *TeacherAvailabilityHandler) Open(c *gin.Context) {
	h.update(c, h.service.OpenSlots)
}

// Close godoc
// @Summary Close local half-hour slots
// @Tags Teacher Availability
// @Accept json
// @Param id path string true "Teacher ID"
// @Param payload body models.UpdateAvailabilityRequest true "Local date and slots"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Failure 423 {object} response.Envelope
// @Router /teachers/{id}/availability [delete]
func (h *TeacherAvailabilityHandler) Close(c *gin.Context) {
	h.update(c, h.service.CloseSlots)
}

func (h *TeacherAvailabilityHandler) update(c *gin.Context, apply func(context.Context, models.Actor, string, models.UpdateAvailabilityRequest) error) {
	var req models.UpdateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrValidationFailed, "invalid availability payload"))
		return
	}
	if err := apply(c.Request.Context(), actorFromContext(c), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
