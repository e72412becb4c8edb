package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/logger"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/metrics"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/engine"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/models"
)

const cacheName = "candidates"

// CachedStore is a cache-aside wrapper over another candidate store. Store
// errors pass through uncached; Redis errors fall back to the store.
type CachedStore struct {
	next   engine.CandidateStore
	redis  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedStore(next engine.CandidateStore, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &CachedStore{next: next, redis: rdb, ttl: ttl, logger: log}
}

// CacheKey identifies a pool by its normalized material set and, when
// present, the location and radius it was prefiltered with.
func CacheKey(q models.CandidateQuery) string {
	key := "rfq:candidates:" + strings.Join(normalizeMaterials(q.Materials), ",")
	if lat, lng, ok := q.Location.Coordinates(); ok && q.RadiusMiles != nil {
		key += fmt.Sprintf(":%.4f,%.4f:%g", lat, lng, *q.RadiusMiles)
	}
	return key
}

func (c *CachedStore) FetchCandidates(ctx context.Context, q models.CandidateQuery) ([]models.SupplierCandidate, error) {
	key := CacheKey(q)

	val, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var pool []models.SupplierCandidate
		if jsonErr := json.Unmarshal(val, &pool); jsonErr == nil {
			metrics.RFQCacheLookups.WithLabelValues(cacheName, "hit").Inc()
			return pool, nil
		}
		metrics.RFQCacheLookups.WithLabelValues(cacheName, "corrupt").Inc()
	case errors.Is(err, redis.Nil):
		metrics.RFQCacheLookups.WithLabelValues(cacheName, "miss").Inc()
	default:
		metrics.RFQCacheLookups.WithLabelValues(cacheName, "error").Inc()
		c.logger.Warn("candidate cache read failed", map[string]interface{}{"key": key, "error": err})
	}

	pool, err := c.next.FetchCandidates(ctx, q)
	if err != nil {
		return nil, err
	}

	// NaN numerics do not survive JSON; such pools are served uncached.
	payload, err := json.Marshal(pool)
	if err != nil {
		c.logger.Debug("candidate pool not cacheable", map[string]interface{}{"key": key, "error": err})
		return pool, nil
	}
	if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("candidate cache write failed", map[string]interface{}{"key": key, "error": err})
	}
	return pool, nil
}
