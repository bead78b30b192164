package dto

import "github.com/noah-isme/tutor-booking-api/internal/models"

// ReserveSlotRequest is the payload for claiming one slot. Date and TimeSlot
// are UTC, as returned by the availability search. TeacherID may be "any", in
// which case TeacherIDs lists the candidates offered in that slot.
type ReserveSlotRequest struct {
	Date       string                `json:"date" validate:"required" example:"2025-06-24"`
	TimeSlot   string                `json:"time_slot" validate:"required" example:"16:00"`
	TeacherID  string                `json:"teacher_id" validate:"required" example:"any"`
	TeacherIDs []string              `json:"teacher_ids" validate:"omitempty,dive,required"`
	Subject    models.BookingSubject `json:"subject"`
}
