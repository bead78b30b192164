package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-booking-api/internal/dto"
	"github.com/noah-isme/tutor-booking-api/internal/models"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
	"github.com/noah-isme/tutor-booking-api/pkg/response"
)

type bookingService interface {
	ReserveSlot(ctx context.Context, actor models.Actor, req dto.ReserveSlotRequest) (*models.ReservationResult, error)
}

// BookingHandler exposes the reservation step.
type BookingHandler struct {
	service bookingService
}

// NewBookingHandler builds a new handler.
func NewBookingHandler(service bookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// ReserveTrial godoc
// @Summary Reserve a trial slot
// @Description Claims one UTC slot. With teacher_id "any" the first free candidate wins.
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body dto.ReserveSlotRequest true "Reservation payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 423 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /bookings/trial [post]
func (h *BookingHandler) ReserveTrial(c *gin.Context) {
	var req dto.ReserveSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrValidationFailed, "invalid booking payload"))
		return
	}
	result, err := h.service.ReserveSlot(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
