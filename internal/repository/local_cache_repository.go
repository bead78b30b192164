package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/maypok86/otter/v2"

	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

type localEntry struct {
	payload   []byte
	expiresAt time.Time
}

// LocalCacheRepository keeps cached payloads in process memory. It backs the
// search cache when Redis is disabled, so invalidation is per replica.
type LocalCacheRepository struct {
	cache *otter.Cache[string, localEntry]
	now   func() time.Time
}

// NewLocalCacheRepository builds a bounded in-memory cache. maxTTL caps how
// long any entry may live regardless of the TTL passed to Set.
func NewLocalCacheRepository(size int, maxTTL time.Duration) *LocalCacheRepository {
	if size <= 0 {
		size = 2048
	}
	if maxTTL <= 0 {
		maxTTL = 5 * time.Minute
	}
	return &LocalCacheRepository{
		cache: otter.Must(&otter.Options[string, localEntry]{
			MaximumSize:      size,
			InitialCapacity:  size / 8,
			ExpiryCalculator: otter.ExpiryWriting[string, localEntry](maxTTL),
		}),
		now: time.Now,
	}
}

// Get unmarshals the cached value into dest.
func (r *LocalCacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	entry, ok := r.cache.GetIfPresent(key)
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if !r.now().Before(entry.expiresAt) {
		r.cache.Invalidate(key)
		return appErrors.ErrCacheMiss
	}
	if err := json.Unmarshal(entry.payload, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set stores value as JSON so callers get a private copy on every Get.
func (r *LocalCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	r.cache.Set(key, localEntry{payload: payload, expiresAt: r.now().Add(ttl)})
	return nil
}

// DeleteByPattern removes entries whose key matches the glob pattern.
func (r *LocalCacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return fmt.Errorf("invalid cache pattern %s: %w", pattern, err)
	}
	var matched []string
	r.cache.All()(func(key string, _ localEntry) bool {
		if ok, _ := path.Match(pattern, key); ok {
			matched = append(matched, key)
		}
		return true
	})
	for _, key := range matched {
		r.cache.Invalidate(key)
	}
	return nil
}

// Len reports the approximate number of cached entries.
func (r *LocalCacheRepository) Len() int {
	return r.cache.EstimatedSize()
}
