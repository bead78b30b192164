package service

import (
	"time"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/timezone"
)

const (
	// windowBefore and windowAfter widen the converted hour into the range a
	// search returns: [utcHour-1, utcHour+2).
	windowBefore = 1
	windowAfter  = 2

	minutesPerDay = 24 * 60
)

// ExpandTeacherTypes returns the teacher types that satisfy a filter. A mixed
// request accepts every type; a concrete request also accepts mixed teachers.
func ExpandTeacherTypes(filter models.TeacherType) []models.TeacherType {
	if filter == models.TeacherTypeMixed || filter == "" {
		out := make([]models.TeacherType, len(models.AllTeacherTypes))
		copy(out, models.AllTeacherTypes)
		return out
	}
	return []models.TeacherType{filter, models.TeacherTypeMixed}
}

// BuildAvailabilityQuery describes the range read for a UTC date and hour.
// The window [utcHour-1, utcHour+2) is kept whole: the part that falls before
// or after the UTC day becomes a second range on the adjacent date.
func BuildAvailabilityQuery(utcDate time.Time, utcHour int, filter models.TeacherType) models.AvailabilityQuery {
	day := timezone.DateOnly(utcDate)
	start := (utcHour - windowBefore) * 60
	end := (utcHour + windowAfter) * 60

	var ranges []models.SlotRange
	if start < 0 {
		ranges = append(ranges, slotRange(day.AddDate(0, 0, -1), start+minutesPerDay, minutesPerDay))
		start = 0
	}
	ranges = append(ranges, slotRange(day, start, min(end, minutesPerDay)))
	if end > minutesPerDay {
		ranges = append(ranges, slotRange(day.AddDate(0, 0, 1), 0, end-minutesPerDay))
	}

	return models.AvailabilityQuery{
		Date:         day,
		Ranges:       ranges,
		TeacherTypes: ExpandTeacherTypes(filter),
	}
}

func slotRange(date time.Time, start, end int) models.SlotRange {
	return models.SlotRange{Date: date, StartTime: timezone.FormatSlot(start), EndTime: timezone.FormatSlot(end)}
}
