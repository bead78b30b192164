package service

import (
	"sort"
	"strings"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/timezone"
)

// AggregateSlots groups rows that share an identical UTC date and slot value
// into one bookable slot. Grouping happens on the raw UTC value, never on a
// formatted one. Groups are sorted by date then start time, teachers by name
// then id. Rows whose slot is not on the half-hour grid are skipped.
//
// Every row becomes one teacher entry: the store keeps (teacher_id, date,
// time_slot) unique, so N rows for a slot are N distinct teachers.
func AggregateSlots(rows []models.AvailableSlotRow) []models.AggregatedTimeSlot {
	type slotKey struct{ date, start string }
	groups := make(map[slotKey][]models.SlotTeacher)
	for _, row := range rows {
		slot, err := timezone.NormalizeSlot(row.TimeSlot)
		if err != nil {
			continue
		}
		k := slotKey{date: timezone.DateOnly(row.Date).Format(timezone.DateLayout), start: slot}
		groups[k] = append(groups[k], models.SlotTeacher{
			TeacherID:   row.TeacherID,
			TeacherName: row.TeacherName,
			TeacherType: row.TeacherType,
		})
	}

	slots := make([]models.AggregatedTimeSlot, 0, len(groups))
	for k, teachers := range groups {
		sortSlotTeachers(teachers)
		slots = append(slots, models.AggregatedTimeSlot{
			Date:         k.date,
			UTCStartTime: k.start,
			UTCEndTime:   slotEnd(k.start),
			Teachers:     teachers,
		})
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		return slots[i].UTCStartTime < slots[j].UTCStartTime
	})
	return slots
}

func sortSlotTeachers(teachers []models.SlotTeacher) {
	sort.SliceStable(teachers, func(i, j int) bool {
		a, b := strings.ToLower(teachers[i].TeacherName), strings.ToLower(teachers[j].TeacherName)
		if a != b {
			return a < b
		}
		return teachers[i].TeacherID < teachers[j].TeacherID
	})
}

// slotEnd adds one slot length to a normalised "HH:MM" start. 23:30 ends at
// 00:00 of the next day.
func slotEnd(start string) string {
	minutes, err := timezone.ParseSlot(start)
	if err != nil {
		return start
	}
	return timezone.FormatSlot((minutes + timezone.SlotMinutes) % minutesPerDay)
}
