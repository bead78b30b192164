package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/timezone"
	"github.com/noah-isme/tutor-booking-api/pkg/jobs"
)

// JobTypeBookingConfirmed is the queue job raised after a reservation commits.
const JobTypeBookingConfirmed = "booking.confirmed"

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
}

// NotificationService writes inbox notifications in the background so the
// reservation response never waits on them.
type NotificationService struct {
	repo     notificationRepository
	registry *timezone.Registry
	queue    *jobs.Queue
	logger   *zap.Logger
	now      func() time.Time
}

// NewNotificationService builds the service and its worker queue.
func NewNotificationService(repo notificationRepository, registry *timezone.Registry, logger *zap.Logger, cfg jobs.QueueConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Logger = logger
	svc := &NotificationService{repo: repo, registry: registry, logger: logger, now: time.Now}
	svc.queue = jobs.NewQueue("notifications", svc.handle, cfg)
	return svc
}

// Start launches the notification workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// BookingConfirmed queues a notification for the booked teacher.
func (s *NotificationService) BookingConfirmed(ctx context.Context, notice BookingNotice) error {
	return s.queue.Enqueue(jobs.Job{
		ID:      notice.SessionID,
		Type:    JobTypeBookingConfirmed,
		Payload: notice,
	})
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case JobTypeBookingConfirmed:
		notice, ok := job.Payload.(BookingNotice)
		if !ok {
			s.logger.Error("unexpected payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
			return nil
		}
		return s.repo.Create(ctx, s.bookingMessage(notice))
	default:
		s.logger.Warn("unknown notification job", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
}

// bookingMessage renders the slot in operations time, which is the time the
// teacher schedule is kept in. The id is derived from the session so a retried
// job writes the same row.
func (s *NotificationService) bookingMessage(notice BookingNotice) *models.Notification {
	ops := s.registry.Operations()
	display := s.registry.Display(notice.Start, ops)
	return &models.Notification{
		ID:          uuid.NewSHA1(uuid.NameSpaceURL, []byte(JobTypeBookingConfirmed+":"+notice.SessionID)).String(),
		RecipientID: notice.TeacherID,
		Kind:        JobTypeBookingConfirmed,
		Title:       "New trial session booked",
		Body:        fmt.Sprintf("%s booked a trial session on %s, %s.", notice.StudentName, display.OperationsDay, display.Operations),
		CreatedAt:   s.now().UTC(),
	}
}
