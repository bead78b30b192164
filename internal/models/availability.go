package models

import "time"

// AvailabilityRecord is one half-hour a teacher has opened, stored in UTC.
// IsBooked implies IsAvailable.
type AvailabilityRecord struct {
	ID              string    `db:"id" json:"id"`
	TeacherID       string    `db:"teacher_id" json:"teacher_id"`
	Date            time.Time `db:"date" json:"date"`
	TimeSlot        string    `db:"time_slot" json:"time_slot"`
	IsAvailable     bool      `db:"is_available" json:"is_available"`
	IsBooked        bool      `db:"is_booked" json:"is_booked"`
	BookedStudentID *string   `db:"booked_student_id" json:"booked_student_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// SlotRange is the half-open range [StartTime, EndTime) of UTC slots on one
// UTC date. EndTime may be "24:00".
type SlotRange struct {
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
}

// AvailabilityQuery is the filter an availability range read must apply. The
// fixed part of the predicate (available, not booked, approved teacher with
// the teacher role) is always applied by the store adapter.
//
// Date is the UTC date the converted hour falls on. Ranges holds one range,
// or two when the window crosses UTC midnight.
type AvailabilityQuery struct {
	Date         time.Time     `json:"date"`
	Ranges       []SlotRange   `json:"ranges"`
	TeacherTypes []TeacherType `json:"teacher_types"`
}

// Window returns the outer bounds of the query as "YYYY-MM-DD HH:MM".
func (q AvailabilityQuery) Window() (from, to string) {
	if len(q.Ranges) == 0 {
		return "", ""
	}
	first, last := q.Ranges[0], q.Ranges[len(q.Ranges)-1]
	return first.Date.Format("2006-01-02") + " " + first.StartTime, last.Date.Format("2006-01-02") + " " + last.EndTime
}

// AvailableSlotRow is one (teacher, UTC date, UTC slot) returned by a range
// read. The store keeps (teacher_id, date, time_slot) unique.
type AvailableSlotRow struct {
	TeacherID   string      `db:"teacher_id"`
	TeacherName string      `db:"teacher_name"`
	TeacherType TeacherType `db:"teacher_type"`
	Date        time.Time   `db:"date"`
	TimeSlot    string      `db:"time_slot"`
}

// SlotSearchRequest is a client's request for bookable slots around a local
// date and time.
type SlotSearchRequest struct {
	Date        string `form:"date" json:"date"`
	Timezone    string `form:"timezone" json:"timezone"`
	Time        string `form:"time" json:"time"`
	TeacherType string `form:"teacher_type" json:"teacher_type"`
}

// SlotTeacher is a teacher offered within an aggregated slot.
type SlotTeacher struct {
	TeacherID   string      `json:"teacher_id"`
	TeacherName string      `json:"teacher_name"`
	TeacherType TeacherType `json:"teacher_type"`
}

// AggregatedTimeSlot groups every teacher free at one UTC start time.
type AggregatedTimeSlot struct {
	Date              string        `json:"date"`
	UTCStartTime      string        `json:"utc_start_time"`
	UTCEndTime        string        `json:"utc_end_time"`
	ClientDisplay     string        `json:"client_display"`
	ClientDay         string        `json:"client_day"`
	OperationsDisplay string        `json:"operations_display"`
	OperationsDay     string        `json:"operations_day"`
	Teachers          []SlotTeacher `json:"teachers"`
}

// SlotSearchResult is the response of an availability search.
type SlotSearchResult struct {
	ClientTimezone string               `json:"client_timezone"`
	LocalDate      string               `json:"local_date"`
	LocalTime      string               `json:"local_time"`
	UTCDate        string               `json:"utc_date"`
	DayShift       int                  `json:"day_shift"`
	Query          AvailabilityQuery    `json:"query"`
	Slots          []AggregatedTimeSlot `json:"slots"`
}

// TeacherSlot is an availability record expressed in the teacher's zone.
type TeacherSlot struct {
	LocalDate string `json:"local_date"`
	LocalTime string `json:"local_time"`
	UTCDate   string `json:"utc_date"`
	UTCTime   string `json:"utc_time"`
	IsBooked  bool   `json:"is_booked"`
}

// SlotKey addresses one UTC half-hour of a teacher's calendar.
type SlotKey struct {
	Date     time.Time
	TimeSlot string
}

// UpdateAvailabilityRequest opens or closes slots on one local date in the
// teacher's own zone.
type UpdateAvailabilityRequest struct {
	Date  string   `json:"date" validate:"required"`
	Slots []string `json:"slots" validate:"required,min=1,max=48,dive,required"`
}
