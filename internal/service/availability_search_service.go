package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/timezone"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

type availabilitySearchRepository interface {
	ListOpenSlots(ctx context.Context, q models.AvailabilityQuery) ([]models.AvailableSlotRow, error)
}

// AvailabilitySearchService answers "which teachers are free around this
// local time" for a client in one of the registered zones.
type AvailabilitySearchService struct {
	repo     availabilitySearchRepository
	registry *timezone.Registry
	cache    *SearchCache
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewAvailabilitySearchService constructs the search service.
func NewAvailabilitySearchService(repo availabilitySearchRepository, registry *timezone.Registry, cache *SearchCache, metrics *MetricsService, logger *zap.Logger) *AvailabilitySearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilitySearchService{
		repo:     repo,
		registry: registry,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
	}
}

// SearchAvailableSlots converts the client's local date and time into a UTC
// window, reads open availability in that window and returns the slots
// grouped by UTC start time with client and operations display strings.
// No matching rows is an empty result, not an error.
func (s *AvailabilitySearchService) SearchAvailableSlots(ctx context.Context, req models.SlotSearchRequest) (*models.SlotSearchResult, error) {
	client, err := s.registry.Lookup(req.Timezone)
	if err != nil {
		s.metrics.RecordSearch("rejected", 0)
		return nil, err
	}
	date, err := timezone.ParseDate(req.Date)
	if err != nil {
		s.metrics.RecordSearch("rejected", 0)
		return nil, err
	}
	localHour, localTime, err := parseRequestedTime(req.Time)
	if err != nil {
		s.metrics.RecordSearch("rejected", 0)
		return nil, err
	}
	teacherType, err := models.ParseTeacherType(req.TeacherType)
	if err != nil {
		s.metrics.RecordSearch("rejected", 0)
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidSearchParameters.Code, appErrors.ErrInvalidSearchParameters.Status, err.Error())
	}

	conv, err := timezone.Convert(date, localHour, client)
	if err != nil {
		s.metrics.RecordSearch("rejected", 0)
		return nil, err
	}
	query := BuildAvailabilityQuery(conv.UTCDate, conv.UTCHour, teacherType)

	result := &models.SlotSearchResult{
		ClientTimezone: client.ID,
		LocalDate:      conv.LocalDate.Format(timezone.DateLayout),
		LocalTime:      localTime,
		UTCDate:        conv.UTCDate.Format(timezone.DateLayout),
		DayShift:       conv.DayShift,
		Query:          query,
	}

	key := searchCacheKey(client.ID, query)
	var cached []models.AggregatedTimeSlot
	if s.cache.Get(ctx, key, &cached) {
		result.Slots = cached
		s.metrics.RecordSearch("ok", len(cached))
		return result, nil
	}

	rows, err := s.repo.ListOpenSlots(ctx, query)
	if err != nil {
		s.metrics.RecordSearch("error", 0)
		from, to := query.Window()
		s.logger.Error("availability range read failed",
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err))
		return nil, appErrors.WrapAs(err, appErrors.ErrDatastoreUnavailable, "")
	}

	slots := AggregateSlots(rows)
	for i := range slots {
		date, err := timezone.ParseDate(slots[i].Date)
		if err != nil {
			continue
		}
		start, err := timezone.SlotInstant(date, slots[i].UTCStartTime)
		if err != nil {
			continue
		}
		display := s.registry.Display(start, client)
		slots[i].ClientDisplay = display.Client
		slots[i].ClientDay = display.ClientDay
		slots[i].OperationsDisplay = display.Operations
		slots[i].OperationsDay = display.OperationsDay
	}
	result.Slots = slots

	s.cache.Set(ctx, key, slots)
	s.metrics.RecordSearch("ok", len(slots))
	s.logger.Debug("availability search",
		zap.String("timezone", client.ID),
		zap.String("local", result.LocalDate+" "+localTime),
		zap.String("utc_date", result.UTCDate),
		zap.Int("day_shift", conv.DayShift),
		zap.Int("slots", len(slots)))
	return result, nil
}

// parseRequestedTime accepts "HH:MM" on the half-hour grid or a bare hour and
// returns the whole hour to convert plus the canonical time string.
func parseRequestedTime(raw string) (int, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, "", appErrors.Clone(appErrors.ErrInvalidSearchParameters, "time is required")
	}
	if !strings.Contains(raw, ":") {
		hour, err := strconv.Atoi(raw)
		if err != nil || hour < 0 || hour > 23 {
			return 0, "", appErrors.Clone(appErrors.ErrInvalidSearchParameters, fmt.Sprintf("hour %q outside 0-23", raw))
		}
		return hour, timezone.FormatSlot(hour * 60), nil
	}
	minutes, err := timezone.ParseSlot(raw)
	if err != nil {
		return 0, "", err
	}
	return minutes / 60, timezone.FormatSlot(minutes), nil
}
