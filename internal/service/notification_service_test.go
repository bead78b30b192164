package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/timezone"
	"github.com/noah-isme/tutor-booking-api/pkg/jobs"
)

type recordingNotificationRepo struct {
	mu       sync.Mutex
	failures int
	created  []*models.Notification
}

func (r *recordingNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return errors.New("connection reset")
	}
	r.created = append(r.created, n)
	return nil
}

func (r *recordingNotificationRepo) snapshot() []*models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Notification(nil), r.created...)
}

func TestNotificationServiceWritesOperationsTime(t *testing.T) {
	repo := &recordingNotificationRepo{failures: 1}
	svc := NewNotificationService(repo, timezone.MustDefaultRegistry(), nil, jobs.QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: time.Millisecond})
	svc.Start(context.Background())
	defer svc.Stop()

	err := svc.BookingConfirmed(context.Background(), BookingNotice{
		SessionID:   "session-1",
		TeacherID:   "teacher-1",
		TeacherName: "Amal",
		StudentName: "Omar",
		Start:       time.Date(2025, time.June, 24, 16, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(repo.snapshot()) == 1 }, 2*time.Second, 5*time.Millisecond)
	n := repo.snapshot()[0]
	assert.Equal(t, "teacher-1", n.RecipientID)
	assert.Equal(t, JobTypeBookingConfirmed, n.Kind)
	assert.Equal(t, "Omar booked a trial session on Tuesday, Jun 24, 7:00 PM-7:30 PM (Egypt).", n.Body)
}

func TestNotificationServiceRequiresStart(t *testing.T) {
	svc := NewNotificationService(&recordingNotificationRepo{}, timezone.MustDefaultRegistry(), nil, jobs.QueueConfig{})
	err := svc.BookingConfirmed(context.Background(), BookingNotice{SessionID: "s"})
	assert.ErrorIs(t, err, jobs.ErrNotStarted)
}

func TestBookingMessageIDIsStablePerSession(t *testing.T) {
	svc := NewNotificationService(&recordingNotificationRepo{}, timezone.MustDefaultRegistry(), nil, jobs.QueueConfig{})
	notice := BookingNotice{SessionID: "session-1", TeacherID: "t1", Start: time.Date(2025, 6, 24, 16, 0, 0, 0, time.UTC)}

	assert.Equal(t, svc.bookingMessage(notice).ID, svc.bookingMessage(notice).ID)
	notice.SessionID = "session-2"
	assert.NotEqual(t, svc.bookingMessage(BookingNotice{SessionID: "session-1"}).ID, svc.bookingMessage(notice).ID)
}
