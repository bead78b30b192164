package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-booking-api/internal/dto"
	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/timezone"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

type bookingRepository interface {
	Reserve(ctx context.Context, r *models.Reservation) (*models.TrialSession, error)
}

type bookingTeacherRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Teacher, error)
}

type bookingNotifier interface {
	BookingConfirmed(ctx context.Context, notice BookingNotice) error
}

// BookingNotice describes a confirmed reservation for downstream notification.
type BookingNotice struct {
	SessionID   string    `json:"session_id"`
	TeacherID   string    `json:"teacher_id"`
	TeacherName string    `json:"teacher_name"`
	StudentName string    `json:"student_name"`
	Start       time.Time `json:"start"`
}

// BookingConfig carries reservation business rules.
type BookingConfig struct {
	LockSameDay bool
	Now         func() time.Time
}

// BookingService performs the reservation step.
type BookingService struct {
	repo      bookingRepository
	teachers  bookingTeacherRepository
	registry  *timezone.Registry
	cache     *SearchCache
	notifier  bookingNotifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    BookingConfig
}

// NewBookingService constructs a BookingService.
func NewBookingService(repo bookingRepository, teachers bookingTeacherRepository, registry *timezone.Registry, cache *SearchCache, notifier bookingNotifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, config BookingConfig) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &BookingService{
		repo:      repo,
		teachers:  teachers,
		registry:  registry,
		cache:     cache,
		notifier:  notifier,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    config,
	}
}

var bookingRoles = map[models.UserRole]struct{}{
	models.RoleAdmin:      {},
	models.RoleSales:      {},
	models.RoleSupervisor: {},
}

// ReserveSlot claims the slot (date, time_slot) for one teacher. With
// teacher_id "any" the candidates in teacher_ids are tried in name order and
// the first successful claim wins. Failures are always typed errors.
func (s *BookingService) ReserveSlot(ctx context.Context, actor models.Actor, req dto.ReserveSlotRequest) (*models.ReservationResult, error) {
	result, err := s.reserve(ctx, actor, req)
	if err != nil {
		s.metrics.RecordReservation(appErrors.FromError(err).Code)
		return nil, err
	}
	s.metrics.RecordReservation("OK")
	return result, nil
}

func (s *BookingService) reserve(ctx context.Context, actor models.Actor, req dto.ReserveSlotRequest) (*models.ReservationResult, error) {
	if _, ok := bookingRoles[actor.Role]; !ok {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "role cannot book trial sessions")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidationFailed, "missing or invalid booking fields")
	}

	date, err := timezone.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidationFailed, "date must be YYYY-MM-DD")
	}
	start, err := timezone.SlotInstant(date, req.TimeSlot)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidationFailed, "time_slot must be HH:MM on the half-hour grid")
	}
	slot := start.Format("15:04")
	if err := s.checkLock(start); err != nil {
		return nil, err
	}

	candidates, err := s.candidates(ctx, req)
	if err != nil {
		return nil, err
	}

	subject, err := json.Marshal(req.Subject)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrValidationFailed, "subject is not serialisable")
	}

	for _, teacher := range candidates {
		reservation := &models.Reservation{
			TeacherID: teacher.ID,
			Date:      date,
			TimeSlot:  slot,
			Student: models.TrialStudent{
				FullName:     strings.TrimSpace(req.Subject.StudentName),
				GuardianName: strings.TrimSpace(req.Subject.GuardianName),
				ContactPhone: strings.TrimSpace(req.Subject.ContactPhone),
				Country:      strings.TrimSpace(req.Subject.Country),
				Age:          req.Subject.Age,
			},
			Subject:  subject,
			BookedBy: actor.UserID,
		}
		session, err := s.repo.Reserve(ctx, reservation)
		if err != nil {
			if errors.Is(err, appErrors.ErrSlotAlreadyTaken) {
				s.logger.Info("slot already taken, trying next candidate",
					zap.String("teacher_id", teacher.ID),
					zap.String("date", req.Date),
					zap.String("time_slot", slot))
				continue
			}
			return nil, translateStoreError(err)
		}

		s.cache.InvalidateSearches(ctx)
		s.notify(ctx, BookingNotice{
			SessionID:   session.ID,
			TeacherID:   teacher.ID,
			TeacherName: teacher.FullName,
			StudentName: reservation.Student.FullName,
			Start:       start,
		})
		s.logger.Info("trial session reserved",
			zap.String("session_id", session.ID),
			zap.String("teacher_id", teacher.ID),
			zap.String("date", req.Date),
			zap.String("time_slot", slot),
			zap.String("booked_by", actor.UserID))

		return &models.ReservationResult{
			Success:     true,
			SessionID:   session.ID,
			TeacherID:   teacher.ID,
			TeacherName: teacher.FullName,
			Date:        date.Format(timezone.DateLayout),
			TimeSlot:    slot,
		}, nil
	}

	return nil, appErrors.Clone(appErrors.ErrSlotAlreadyTaken, fmt.Sprintf("slot %s %s was taken by another booking", req.Date, slot))
}

// checkLock rejects slots that already started and, when same-day locking is
// on, slots falling on today's date in the operations zone.
func (s *BookingService) checkLock(start time.Time) error {
	now := s.config.Now()
	if !start.After(now) {
		return appErrors.Clone(appErrors.ErrTodayLocked, "slot has already started")
	}
	if !s.config.LockSameDay {
		return nil
	}
	ops := s.registry.Operations().Location()
	if timezone.DateOnly(start.In(ops)).Equal(timezone.DateOnly(now.In(ops))) {
		return appErrors.Clone(appErrors.ErrTodayLocked, "same-day bookings are locked")
	}
	return nil
}

// candidates resolves the teachers to try, ordered by name then id.
func (s *BookingService) candidates(ctx context.Context, req dto.ReserveSlotRequest) ([]models.Teacher, error) {
	ids := []string{strings.TrimSpace(req.TeacherID)}
	if strings.EqualFold(ids[0], models.AnyTeacher) {
		ids = uniqueIDs(req.TeacherIDs)
		if len(ids) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidationFailed, "teacher_ids is required when teacher_id is \"any\"")
		}
	}

	teachers, err := s.teachers.FindByIDs(ctx, ids)
	if err != nil {
		return nil, translateStoreError(err)
	}
	bookable := make([]models.Teacher, 0, len(teachers))
	for _, t := range teachers {
		if t.Bookable() {
			bookable = append(bookable, t)
		}
	}
	if len(bookable) == 0 {
		return nil, appErrors.Clone(appErrors.ErrTeacherNotFound, "no approved teacher matches the request")
	}
	sort.SliceStable(bookable, func(i, j int) bool {
		a, b := strings.ToLower(bookable[i].FullName), strings.ToLower(bookable[j].FullName)
		if a != b {
			return a < b
		}
		return bookable[i].ID < bookable[j].ID
	})
	return bookable, nil
}

func (s *BookingService) notify(ctx context.Context, notice BookingNotice) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.BookingConfirmed(ctx, notice); err != nil {
		s.logger.Warn("failed to queue booking notification", zap.String("session_id", notice.SessionID), zap.Error(err))
	}
}

// translateStoreError keeps typed errors and turns anything else into a
// retryable data store failure.
func translateStoreError(err error) error {
	var typed *appErrors.Error
	if errors.As(err, &typed) {
		return typed
	}
	return appErrors.WrapAs(err, appErrors.ErrDatastoreUnavailable, "")
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
