package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/timezone"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

const maxListDays = 31

type teacherAvailabilityRepository interface {
	ListForTeacher(ctx context.Context, teacherID string, from, to time.Time) ([]models.AvailabilityRecord, error)
	OpenSlots(ctx context.Context, teacherID string, slots []models.SlotKey) error
	CloseSlots(ctx context.Context, teacherID string, slots []models.SlotKey) error
}

type teacherLookupRepository interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// TeacherAvailabilityService lets teachers manage their own half-hour slots.
// Teachers think in their own zone; records are stored in UTC.
type TeacherAvailabilityService struct {
	repo      teacherAvailabilityRepository
	teachers  teacherLookupRepository
	registry  *timezone.Registry
	cache     *SearchCache
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTeacherAvailabilityService constructs the service.
func NewTeacherAvailabilityService(repo teacherAvailabilityRepository, teachers teacherLookupRepository, registry *timezone.Registry, cache *SearchCache, validate *validator.Validate, logger *zap.Logger) *TeacherAvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherAvailabilityService{
		repo:      repo,
		teachers:  teachers,
		registry:  registry,
		cache:     cache,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// ListSlots returns the teacher's records whose local date lies in
// [from, to], expressed in the teacher's zone.
func (s *TeacherAvailabilityService) ListSlots(ctx context.Context, actor models.Actor, teacherID, from, to string) ([]models.TeacherSlot, error) {
	if !canView(actor, teacherID) {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "cannot view another teacher's availability")
	}
	teacher, zone, err := s.resolveTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	fromDate, err := timezone.ParseDate(from)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidationFailed, "from must be YYYY-MM-DD")
	}
	toDate := fromDate
	if to != "" {
		if toDate, err = timezone.ParseDate(to); err != nil {
			return nil, appErrors.WrapAs(err, appErrors.ErrValidationFailed, "to must be YYYY-MM-DD")
		}
	}
	if toDate.Before(fromDate) || toDate.Sub(fromDate) > maxListDays*24*time.Hour {
		return nil, appErrors.Clone(appErrors.ErrValidationFailed, fmt.Sprintf("date range must be 0-%d days", maxListDays))
	}

	// A local day spans at most two UTC dates, so widen by one on each side.
	records, err := s.repo.ListForTeacher(ctx, teacher.ID, fromDate.AddDate(0, 0, -1), toDate.AddDate(0, 0, 1))
	if err != nil {
		return nil, translateStoreError(err)
	}

	slots := make([]models.TeacherSlot, 0, len(records))
	for _, rec := range records {
		localDate, localTime, err := timezone.UTCToLocal(rec.Date, rec.TimeSlot, zone)
		if err != nil {
			s.logger.Warn("skipping off-grid availability", zap.String("id", rec.ID), zap.String("time_slot", rec.TimeSlot))
			continue
		}
		if localDate.Before(fromDate) || localDate.After(toDate) {
			continue
		}
		utcTime, _ := timezone.NormalizeSlot(rec.TimeSlot)
		slots = append(slots, models.TeacherSlot{
			LocalDate: localDate.Format(timezone.DateLayout),
			LocalTime: localTime,
			UTCDate:   timezone.DateOnly(rec.Date).Format(timezone.DateLayout),
			UTCTime:   utcTime,
			IsBooked:  rec.IsBooked,
		})
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].LocalDate != slots[j].LocalDate {
			return slots[i].LocalDate < slots[j].LocalDate
		}
		return slots[i].LocalTime < slots[j].LocalTime
	})
	return slots, nil
}

// OpenSlots marks local half-hours as available.
func (s *TeacherAvailabilityService) OpenSlots(ctx context.Context, actor models.Actor, teacherID string, req models.UpdateAvailabilityRequest) error {
	return s.update(ctx, actor, teacherID, req, "open", s.repo.OpenSlots)
}

// CloseSlots removes local half-hours that are not booked.
func (s *TeacherAvailabilityService) CloseSlots(ctx context.Context, actor models.Actor, teacherID string, req models.UpdateAvailabilityRequest) error {
	return s.update(ctx, actor, teacherID, req, "close", s.repo.CloseSlots)
}

func (s *TeacherAvailabilityService) update(ctx context.Context, actor models.Actor, teacherID string, req models.UpdateAvailabilityRequest, action string, apply func(context.Context, string, []models.SlotKey) error) error {
	if !canEdit(actor, teacherID) {
		return appErrors.Clone(appErrors.ErrPermissionDenied, "cannot edit another teacher's availability")
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.WrapAs(err, appErrors.ErrValidationFailed, "date and at least one slot are required")
	}
	teacher, zone, err := s.resolveTeacher(ctx, teacherID)
	if err != nil {
		return err
	}
	localDate, err := timezone.ParseDate(req.Date)
	if err != nil {
		return appErrors.WrapAs(err, appErrors.ErrValidationFailed, "date must be YYYY-MM-DD")
	}
	today := timezone.DateOnly(s.now().In(zone.Location()))
	if !localDate.After(today) {
		return appErrors.Clone(appErrors.ErrTodayLocked, "availability for today and earlier is locked")
	}

	keys := make([]models.SlotKey, 0, len(req.Slots))
	seen := make(map[string]struct{}, len(req.Slots))
	for _, raw := range req.Slots {
		utcDate, utcSlot, err := timezone.LocalToUTC(localDate, raw, zone)
		if err != nil {
			return appErrors.WrapAs(err, appErrors.ErrValidationFailed, fmt.Sprintf("slot %q must be HH:MM on the half-hour grid", raw))
		}
		k := utcDate.Format(timezone.DateLayout) + " " + utcSlot
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, models.SlotKey{Date: utcDate, TimeSlot: utcSlot})
	}

	if err := apply(ctx, teacher.ID, keys); err != nil {
		return translateStoreError(err)
	}
	s.cache.InvalidateSearches(ctx)
	s.logger.Info("teacher availability updated",
		zap.String("teacher_id", teacher.ID),
		zap.String("action", action),
		zap.String("local_date", req.Date),
		zap.String("timezone", zone.ID),
		zap.Int("slots", len(keys)),
		zap.String("actor", actor.UserID))
	return nil
}

// resolveTeacher loads the teacher and the zone their calendar is kept in. A
// profile with an unsupported zone is refused: any guessed offset would store
// the wrong instant.
func (s *TeacherAvailabilityService) resolveTeacher(ctx context.Context, teacherID string) (*models.Teacher, timezone.Descriptor, error) {
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, timezone.Descriptor{}, appErrors.Clone(appErrors.ErrTeacherNotFound, "teacher not found")
		}
		return nil, timezone.Descriptor{}, translateStoreError(err)
	}
	if teacher.Role != models.RoleTeacher {
		return nil, timezone.Descriptor{}, appErrors.Clone(appErrors.ErrTeacherNotFound, "user is not a teacher")
	}
	zone, err := s.registry.Lookup(teacher.Timezone)
	if err != nil {
		s.logger.Warn("teacher profile has unsupported timezone", zap.String("teacher_id", teacher.ID), zap.String("timezone", teacher.Timezone))
		return nil, timezone.Descriptor{}, appErrors.WrapAs(err, appErrors.ErrInvalidTimezone, fmt.Sprintf("teacher %s has unsupported timezone %q", teacher.ID, teacher.Timezone))
	}
	return teacher, zone, nil
}

func canView(actor models.Actor, teacherID string) bool {
	switch actor.Role {
	case models.RoleAdmin, models.RoleSupervisor:
		return true
	}
	return actor.Role == models.RoleTeacher && actor.UserID == teacherID
}

func canEdit(actor models.Actor, teacherID string) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	return actor.Role == models.RoleTeacher && actor.UserID == teacherID
}
