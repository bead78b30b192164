package models

import (
	"encoding/json"
	"time"
)

// AnyTeacher asks the reservation step to pick among the candidate teachers.
const AnyTeacher = "any"

// BookingSubject carries the student and family details of a trial booking.
// Only the required fields are inspected; Details is forwarded verbatim.
type BookingSubject struct {
	StudentName  string          `json:"student_name" validate:"required,max=200"`
	GuardianName string          `json:"guardian_name" validate:"omitempty,max=200"`
	ContactPhone string          `json:"contact_phone" validate:"required,max=50"`
	Country      string          `json:"country" validate:"omitempty,max=100"`
	Age          *int            `json:"age" validate:"omitempty,min=3,max=99"`
	Notes        string          `json:"notes" validate:"omitempty,max=2000"`
	Details      json.RawMessage `json:"details,omitempty" swaggertype:"object"`
}

// TrialSession is the commitment created by a successful reservation.
type TrialSession struct {
	ID             string          `db:"id" json:"id"`
	AvailabilityID string          `db:"availability_id" json:"availability_id"`
	TeacherID      string          `db:"teacher_id" json:"teacher_id"`
	StudentID      string          `db:"student_id" json:"student_id"`
	SessionDate    time.Time       `db:"session_date" json:"session_date"`
	TimeSlot       string          `db:"time_slot" json:"time_slot"`
	Subject        json.RawMessage `db:"subject" json:"subject"`
	BookedBy       string          `db:"booked_by" json:"booked_by"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// TrialStudent is the student row created alongside a trial session.
type TrialStudent struct {
	ID           string    `db:"id"`
	FullName     string    `db:"full_name"`
	GuardianName string    `db:"guardian_name"`
	ContactPhone string    `db:"contact_phone"`
	Country      string    `db:"country"`
	Age          *int      `db:"age"`
	CreatedAt    time.Time `db:"created_at"`
}

// Reservation is the write the reservation step hands to the store: claim
// (TeacherID, Date, TimeSlot) and record the student and session.
type Reservation struct {
	TeacherID string
	Date      time.Time
	TimeSlot  string
	Student   TrialStudent
	Subject   json.RawMessage
	BookedBy  string
}

// ReservationResult is returned by a successful reservation.
type ReservationResult struct {
	Success     bool   `json:"success"`
	SessionID   string `json:"session_id"`
	TeacherID   string `json:"teacher_id"`
	TeacherName string `json:"teacher_name"`
	Date        string `json:"date"`
	TimeSlot    string `json:"time_slot"`
}

// Notification is an inbox message for a user.
type Notification struct {
	ID          string    `db:"id" json:"id"`
	RecipientID string    `db:"recipient_id" json:"recipient_id"`
	Kind        string    `db:"kind" json:"kind"`
	Title       string    `db:"title" json:"title"`
	Body        string    `db:"body" json:"body"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
