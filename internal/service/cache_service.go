package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-booking-api/internal/models"
	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

const searchCachePrefix = "availability:search:"

// CacheRepository stores JSON payloads by key. Get returns ErrCacheMiss for
// absent or expired keys.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// SearchCache memoises availability search results. Cache failures never fail
// a search; they are logged and counted. A nil *SearchCache is a no-op.
type SearchCache struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewSearchCache wraps repo. A nil repo disables caching.
func NewSearchCache(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *SearchCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchCache{repo: repo, metrics: metrics, ttl: ttl, logger: logger}
}

func (c *SearchCache) active() bool {
	return c != nil && c.repo != nil
}

// Get decodes the entry for key into dest and reports whether it was found.
func (c *SearchCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if !c.active() {
		return false
	}
	start := time.Now()
	err := c.repo.Get(ctx, key, dest)
	if errors.Is(err, appErrors.ErrCacheMiss) {
		c.metrics.RecordCacheLookup(false, nil, time.Since(start))
		return false
	}
	c.metrics.RecordCacheLookup(err == nil, err, time.Since(start))
	if err != nil {
		c.logger.Warn("search cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// Set stores value under key for the configured TTL.
func (c *SearchCache) Set(ctx context.Context, key string, value interface{}) {
	if !c.active() {
		return
	}
	start := time.Now()
	err := c.repo.Set(ctx, key, value, c.ttl)
	c.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		c.logger.Warn("search cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateSearches drops every cached search. Any reservation or
// availability edit can change any search result.
func (c *SearchCache) InvalidateSearches(ctx context.Context) {
	if !c.active() {
		return
	}
	if err := c.repo.DeleteByPattern(ctx, searchCachePrefix+"*"); err != nil {
		c.logger.Warn("search cache invalidation failed", zap.Error(err))
	}
}

// searchCacheKey identifies a search by the client zone and the resolved UTC
// query, so two local requests that map to the same window share an entry
// only when they are rendered for the same zone.
func searchCacheKey(clientTZ string, q models.AvailabilityQuery) string {
	types := make([]string, len(q.TeacherTypes))
	for i, t := range q.TeacherTypes {
		types[i] = string(t)
	}
	ranges := make([]string, len(q.Ranges))
	for i, rg := range q.Ranges {
		ranges[i] = rg.Date.Format("2006-01-02") + "@" + rg.StartTime + "-" + rg.EndTime
	}
	return fmt.Sprintf("%s%s:%s:%s", searchCachePrefix, clientTZ, strings.Join(ranges, "+"), strings.Join(types, ","))
}
