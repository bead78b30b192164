package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/timezone"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

type mockAvailabilityRepo struct {
	rows    []models.AvailableSlotRow
	err     error
	queries []models.AvailabilityQuery
}

func (m *mockAvailabilityRepo) ListOpenSlots(ctx context.Context, q models.AvailabilityQuery) ([]models.AvailableSlotRow, error) {
	m.queries = append(m.queries, q)
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

type memoryCacheRepo struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{items: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = map[string][]byte{}
	return nil
}

func newSearchService(repo *mockAvailabilityRepo, cache *SearchCache) *AvailabilitySearchService {
	return NewAvailabilitySearchService(repo, timezone.MustDefaultRegistry(), cache, nil, nil)
}

func utcDay(raw string) time.Time {
	d, _ := time.Parse(timezone.DateLayout, raw)
	return d
}

func TestSearchAvailableSlotsSameDay(t *testing.T) {
	repo := &mockAvailabilityRepo{rows: []models.AvailableSlotRow{
		{TeacherID: "t2", TeacherName: "Basma", TeacherType: models.TeacherTypeMixed, Date: utcDay("2025-06-24"), TimeSlot: "16:00:00"},
		{TeacherID: "t1", TeacherName: "Amal", TeacherType: models.TeacherTypeKids, Date: utcDay("2025-06-24"), TimeSlot: "16:00:00"},
	}}
	svc := newSearchService(repo, nil)

	res, err := svc.SearchAvailableSlots(context.Background(), models.SlotSearchRequest{
		Date: "2025-06-24", Timezone: "saudi", Time: "19:00", TeacherType: "kids",
	})
	require.NoError(t, err)

	require.Len(t, repo.queries, 1)
	q := repo.queries[0]
	assert.Equal(t, "2025-06-24", q.Date.Format(timezone.DateLayout))
	require.Len(t, q.Ranges, 1)
	assert.Equal(t, "15:00", q.Ranges[0].StartTime)
	assert.Equal(t, "18:00", q.Ranges[0].EndTime)
	assert.Equal(t, []models.TeacherType{models.TeacherTypeKids, models.TeacherTypeMixed}, q.TeacherTypes)

	assert.Equal(t, 0, res.DayShift)
	require.Len(t, res.Slots, 1)
	slot := res.Slots[0]
	assert.Equal(t, "16:00", slot.UTCStartTime)
	assert.Equal(t, "7:00 PM-7:30 PM", slot.ClientDisplay)
	assert.Equal(t, "7:00 PM-7:30 PM (Egypt)", slot.OperationsDisplay)
	assert.Equal(t, "Amal", slot.Teachers[0].TeacherName)
}

func TestSearchAvailableSlotsPreviousUTCDay(t *testing.T) {
	repo := &mockAvailabilityRepo{rows: []models.AvailableSlotRow{
		{TeacherID: "t1", TeacherName: "Amal", TeacherType: models.TeacherTypeAdult, Date: utcDay("2025-06-23"), TimeSlot: "22:30:00"},
	}}
	svc := newSearchService(repo, nil)

	res, err := svc.SearchAvailableSlots(context.Background(), models.SlotSearchRequest{
		Date: "2025-06-24", Timezone: "saudi", Time: "1",
	})
	require.NoError(t, err)
	assert.Equal(t, -1, res.DayShift)
	assert.Equal(t, "2025-06-23", res.UTCDate)
	assert.Equal(t, "01:00", res.LocalTime)
	assert.Equal(t, []models.SlotRange{{Date: utcDay("2025-06-23"), StartTime: "21:00", EndTime: "24:00"}}, repo.queries[0].Ranges)
	assert.ElementsMatch(t, models.AllTeacherTypes, repo.queries[0].TeacherTypes)

	require.Len(t, res.Slots, 1)
	assert.Equal(t, "2025-06-23", res.Slots[0].Date)
	assert.Equal(t, "1:30 AM-2:00 AM", res.Slots[0].ClientDisplay)
	assert.Equal(t, "Tuesday, Jun 24", res.Slots[0].ClientDay)
}

func TestSearchAvailableSlotsAtUTCMidnightReadsPreviousDay(t *testing.T) {
	repo := &mockAvailabilityRepo{rows: []models.AvailableSlotRow{
		{TeacherID: "t2", TeacherName: "Basma", TeacherType: models.TeacherTypeMixed, Date: utcDay("2025-06-24"), TimeSlot: "00:30:00"},
		{TeacherID: "t1", TeacherName: "Amal", TeacherType: models.TeacherTypeKids, Date: utcDay("2025-06-23"), TimeSlot: "23:30:00"},
	}}
	svc := newSearchService(repo, nil)

	// 03:00 in Riyadh is 00:00 UTC, so the hour before lives on June 23.
	res, err := svc.SearchAvailableSlots(context.Background(), models.SlotSearchRequest{
		Date: "2025-06-24", Timezone: "saudi", Time: "03:00",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.DayShift)
	require.Len(t, repo.queries, 1)
	assert.Equal(t, []models.SlotRange{
		{Date: utcDay("2025-06-23"), StartTime: "23:00", EndTime: "24:00"},
		{Date: utcDay("2025-06-24"), StartTime: "00:00", EndTime: "02:00"},
	}, repo.queries[0].Ranges)

	require.Len(t, res.Slots, 2)
	assert.Equal(t, "2025-06-23", res.Slots[0].Date)
	assert.Equal(t, "23:30", res.Slots[0].UTCStartTime)
	assert.Equal(t, "2:30 AM-3:00 AM", res.Slots[0].ClientDisplay)
	assert.Equal(t, "Tuesday, Jun 24", res.Slots[0].ClientDay)
	assert.Equal(t, "2025-06-24", res.Slots[1].Date)
	assert.Equal(t, "3:30 AM-4:00 AM", res.Slots[1].ClientDisplay)
}

func TestSearchAvailableSlotsAtLastUTCHourReadsNextDay(t *testing.T) {
	repo := &mockAvailabilityRepo{rows: []models.AvailableSlotRow{
		{TeacherID: "t1", TeacherName: "Amal", TeacherType: models.TeacherTypeKids, Date: utcDay("2025-06-24"), TimeSlot: "00:30:00"},
	}}
	svc := newSearchService(repo, nil)

	// 02:00 in Riyadh is 23:00 UTC on June 23, and the window runs past midnight.
	res, err := svc.SearchAvailableSlots(context.Background(), models.SlotSearchRequest{
		Date: "2025-06-24", Timezone: "saudi", Time: "02:00",
	})
	require.NoError(t, err)
	assert.Equal(t, -1, res.DayShift)
	assert.Equal(t, []models.SlotRange{
		{Date: utcDay("2025-06-23"), StartTime: "22:00", EndTime: "24:00"},
		{Date: utcDay("2025-06-24"), StartTime: "00:00", EndTime: "01:00"},
	}, repo.queries[0].Ranges)

	require.Len(t, res.Slots, 1)
	assert.Equal(t, "2025-06-24", res.Slots[0].Date)
	assert.Equal(t, "3:30 AM-4:00 AM", res.Slots[0].ClientDisplay)
	assert.Equal(t, "Tuesday, Jun 24", res.Slots[0].ClientDay)
}

func TestSearchAvailableSlotsNoRowsIsEmpty(t *testing.T) {
	svc := newSearchService(&mockAvailabilityRepo{}, nil)
	res, err := svc.SearchAvailableSlots(context.Background(), models.SlotSearchRequest{
		Date: "2025-06-24", Timezone: "uae", Time: "10:00",
	})
	require.NoError(t, err)
	assert.NotNil(t, res.Slots)
	assert.Empty(t, res.Slots)
}

func TestSearchAvailableSlotsRejectsBadInput(t *testing.T) {
	cases := []struct {
		name   string
		req    models.SlotSearchRequest
		target *appErrors.Error
	}{
		{"unknown zone", models.SlotSearchRequest{Date: "2025-06-24", Timezone: "mars", Time: "10:00"}, appErrors.ErrInvalidTimezone},
		{"bad date", models.SlotSearchRequest{Date: "24-06-2025", Timezone: "saudi", Time: "10:00"}, appErrors.ErrInvalidSearchParameters},
		{"hour out of range", models.SlotSearchRequest{Date: "2025-06-24", Timezone: "saudi", Time: "24"}, appErrors.ErrInvalidSearchParameters},
		{"missing time", models.SlotSearchRequest{Date: "2025-06-24", Timezone: "saudi"}, appErrors.ErrInvalidSearchParameters},
		{"unknown teacher type", models.SlotSearchRequest{Date: "2025-06-24", Timezone: "saudi", Time: "10:00", TeacherType: "toddler"}, appErrors.ErrInvalidSearchParameters},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockAvailabilityRepo{}
			_, err := newSearchService(repo, nil).SearchAvailableSlots(context.Background(), tc.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.target), "got %v", err)
			assert.Empty(t, repo.queries)
		})
	}
}

func TestSearchAvailableSlotsStoreFailure(t *testing.T) {
	repo := &mockAvailabilityRepo{err: errors.New("dial tcp: connection refused")}
	_, err := newSearchService(repo, nil).SearchAvailableSlots(context.Background(), models.SlotSearchRequest{
		Date: "2025-06-24", Timezone: "saudi", Time: "10:00",
	})
	assert.True(t, errors.Is(err, appErrors.ErrDatastoreUnavailable))
}

func TestSearchAvailableSlotsUsesCache(t *testing.T) {
	repo := &mockAvailabilityRepo{rows: []models.AvailableSlotRow{
		{TeacherID: "t1", TeacherName: "Amal", TeacherType: models.TeacherTypeKids, Date: utcDay("2025-06-24"), TimeSlot: "16:00:00"},
	}}
	cache := NewSearchCache(newMemoryCacheRepo(), nil, time.Minute, nil)
	svc := newSearchService(repo, cache)
	req := models.SlotSearchRequest{Date: "2025-06-24", Timezone: "saudi", Time: "19:00"}

	first, err := svc.SearchAvailableSlots(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.SearchAvailableSlots(context.Background(), req)
	require.NoError(t, err)

	assert.Len(t, repo.queries, 1)
	assert.Equal(t, first.Slots, second.Slots)

	cache.InvalidateSearches(context.Background())
	_, err = svc.SearchAvailableSlots(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, repo.queries, 2)
}
