package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

// AvailabilityRepository manages teacher_availability rows. Dates and slots
// are UTC.
type AvailabilityRepository struct {
	db         *sqlx.DB
	attempts   uint
	retryDelay time.Duration
}

// NewAvailabilityRepository constructs an AvailabilityRepository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db, attempts: 3, retryDelay: 100 * time.Millisecond}
}

// ListOpenSlots returns every (teacher, date, slot) inside one of q.Ranges
// that is open and unbooked and belongs to an approved teacher of one of
// q.TeacherTypes. Each range is one read; transient connection failures are
// retried per read.
func (r *AvailabilityRepository) ListOpenSlots(ctx context.Context, q models.AvailabilityQuery) ([]models.AvailableSlotRow, error) {
	types := make([]string, len(q.TeacherTypes))
	for i, t := range q.TeacherTypes {
		types[i] = string(t)
	}
	query := `SELECT ta.teacher_id, t.full_name AS teacher_name, t.teacher_type, ta.date, to_char(ta.time_slot, 'HH24:MI') AS time_slot
FROM teacher_availability ta
JOIN teachers t ON t.id = ta.teacher_id
WHERE ta.date = $1
  AND ta.time_slot >= $2::time AND ta.time_slot < $3::time
  AND ta.is_available = TRUE AND ta.is_booked = FALSE
  AND t.status = 'approved' AND t.role = 'teacher'
  AND t.teacher_type = ANY($4)
ORDER BY ta.time_slot, t.full_name, ta.teacher_id`

	var all []models.AvailableSlotRow
	for _, rg := range q.Ranges {
		var rows []models.AvailableSlotRow
		err := r.withRetry(ctx, func() error {
			rows = rows[:0]
			return r.db.SelectContext(ctx, &rows, query, rg.Date.Format("2006-01-02"), rg.StartTime, endBound(rg.EndTime), pq.Array(types))
		})
		if err != nil {
			return nil, fmt.Errorf("list open slots %s %s-%s: %w", rg.Date.Format("2006-01-02"), rg.StartTime, rg.EndTime, err)
		}
		all = append(all, rows...)
	}
	return all, nil
}

// ListForTeacher returns the teacher's rows with UTC date in [from, to].
func (r *AvailabilityRepository) ListForTeacher(ctx context.Context, teacherID string, from, to time.Time) ([]models.AvailabilityRecord, error) {
	query := `SELECT id, teacher_id, date, to_char(time_slot, 'HH24:MI') AS time_slot, is_available, is_booked, booked_student_id, created_at, updated_at
FROM teacher_availability
WHERE teacher_id = $1 AND date BETWEEN $2 AND $3 AND is_available = TRUE
ORDER BY date, time_slot`

	var records []models.AvailabilityRecord
	err := r.withRetry(ctx, func() error {
		records = records[:0]
		return r.db.SelectContext(ctx, &records, query, teacherID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	})
	if err != nil {
		return nil, fmt.Errorf("list teacher availability: %w", err)
	}
	return records, nil
}

// OpenSlots marks the slots available, creating rows as needed. A booked
// slot aborts the whole change with SLOT_BOOKED.
func (r *AvailabilityRepository) OpenSlots(ctx context.Context, teacherID string, slots []models.SlotKey) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin open slots: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const upsert = `INSERT INTO teacher_availability (id, teacher_id, date, time_slot, is_available, is_booked, created_at, updated_at)
VALUES ($1, $2, $3, $4::time, TRUE, FALSE, $5, $5)
ON CONFLICT (teacher_id, date, time_slot) DO UPDATE
SET is_available = TRUE, updated_at = EXCLUDED.updated_at
WHERE teacher_availability.is_booked = FALSE`

	now := time.Now().UTC()
	for _, s := range slots {
		res, err := tx.ExecContext(ctx, upsert, uuid.NewString(), teacherID, s.Date.Format("2006-01-02"), s.TimeSlot, now)
		if err != nil {
			return mapPQError(fmt.Errorf("open slot %s %s: %w", s.Date.Format("2006-01-02"), s.TimeSlot, err))
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return appErrors.Clone(appErrors.ErrSlotBooked, fmt.Sprintf("slot %s %s UTC is booked", s.Date.Format("2006-01-02"), s.TimeSlot))
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit open slots: %w", err)
	}
	return nil
}

// CloseSlots deletes unbooked rows for the slots. Missing rows are ignored; a
// booked slot aborts the whole change with SLOT_BOOKED.
func (r *AvailabilityRepository) CloseSlots(ctx context.Context, teacherID string, slots []models.SlotKey) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin close slots: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, s := range slots {
		day := s.Date.Format("2006-01-02")
		var booked bool
		err := tx.GetContext(ctx, &booked, `SELECT is_booked FROM teacher_availability WHERE teacher_id = $1 AND date = $2 AND time_slot = $3::time FOR UPDATE`, teacherID, day, s.TimeSlot)
		if err != nil {
			if isNoRows(err) {
				continue
			}
			return mapPQError(fmt.Errorf("lock slot %s %s: %w", day, s.TimeSlot, err))
		}
		if booked {
			return appErrors.Clone(appErrors.ErrSlotBooked, fmt.Sprintf("slot %s %s UTC is booked", day, s.TimeSlot))
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM teacher_availability WHERE teacher_id = $1 AND date = $2 AND time_slot = $3::time AND is_booked = FALSE`, teacherID, day, s.TimeSlot); err != nil {
			return mapPQError(fmt.Errorf("close slot %s %s: %w", day, s.TimeSlot, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit close slots: %w", err)
	}
	return nil
}

func (r *AvailabilityRepository) withRetry(ctx context.Context, fn func() error) error {
	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
	)
}

// endBound maps the exclusive end-of-day "24:00" to a comparable upper bound.
// Postgres accepts 24:00:00 as a time value and it sorts after 23:59:59.
func endBound(end string) string {
	if strings.HasPrefix(end, "24:") {
		return "24:00:00"
	}
	return end
}

// isTransient reports whether a read failed for connection reasons and may
// succeed if repeated.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		class := string(pqErr.Code.Class())
		return class == "08" || pqErr.Code == "57P01" || pqErr.Code == "40001"
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// mapPQError turns row-level security refusals into PERMISSION_DENIED.
func mapPQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "42501" {
		return appErrors.WrapAs(err, appErrors.ErrPermissionDenied, "")
	}
	return err
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
