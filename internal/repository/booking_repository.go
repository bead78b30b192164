package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

// BookingRepository persists trial reservations.
type BookingRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db, now: time.Now}
}

// Reserve claims the slot and records the student and session in one
// transaction. The claim is a conditional update on the availability row, so
// of two concurrent reservations exactly one sees the row and the other gets
// SLOT_ALREADY_TAKEN. Nothing is written when the claim fails.
func (r *BookingRepository) Reserve(ctx context.Context, res *models.Reservation) (*models.TrialSession, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reservation: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := r.now().UTC()
	day := res.Date.Format("2006-01-02")

	student := res.Student
	student.ID = uuid.NewString()
	student.CreatedAt = now
	if _, err := tx.NamedExecContext(ctx, `INSERT INTO trial_students (id, full_name, guardian_name, contact_phone, country, age, created_at)
VALUES (:id, :full_name, :guardian_name, :contact_phone, :country, :age, :created_at)`, &student); err != nil {
		return nil, mapPQError(fmt.Errorf("insert trial student: %w", err))
	}

	var availabilityID string
	err = tx.GetContext(ctx, &availabilityID, `UPDATE teacher_availability
SET is_booked = TRUE, booked_student_id = $4, updated_at = $5
WHERE teacher_id = $1 AND date = $2 AND time_slot = $3::time AND is_available = TRUE AND is_booked = FALSE
RETURNING id`, res.TeacherID, day, res.TimeSlot, student.ID, now)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrSlotAlreadyTaken, fmt.Sprintf("slot %s %s is no longer available", day, res.TimeSlot))
		}
		return nil, mapPQError(fmt.Errorf("claim slot: %w", err))
	}

	session := &models.TrialSession{
		ID:             uuid.NewString(),
		AvailabilityID: availabilityID,
		TeacherID:      res.TeacherID,
		StudentID:      student.ID,
		SessionDate:    res.Date,
		TimeSlot:       res.TimeSlot,
		Subject:        res.Subject,
		BookedBy:       res.BookedBy,
		CreatedAt:      now,
	}
	// subject goes in as text; lib/pq would encode raw bytes as bytea.
	if _, err := tx.ExecContext(ctx, `INSERT INTO trial_sessions (id, availability_id, teacher_id, student_id, session_date, time_slot, subject, booked_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6::time, $7::jsonb, $8, $9)`,
		session.ID, session.AvailabilityID, session.TeacherID, session.StudentID, day, session.TimeSlot, subjectText(res.Subject), session.BookedBy, now); err != nil {
		return nil, mapPQError(fmt.Errorf("insert trial session: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reservation: %w", err)
	}
	return session, nil
}

func subjectText(raw []byte) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}
