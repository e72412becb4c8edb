package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/logger"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/metrics"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/matching/scoring"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/models"
)

const cacheName = "oracle"

// CachedOracle memoises successful adjustments per (rfq, supplier, product).
// Failures are never cached and cache errors never fail a lookup.
type CachedOracle struct {
	next   scoring.RelevanceOracle
	redis  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedOracle(next scoring.RelevanceOracle, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedOracle {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &CachedOracle{next: next, redis: rdb, ttl: ttl, logger: log}
}

func CacheKey(rfqID, supplierID, productID string) string {
	return "rfq:oracle:" + rfqID + ":" + supplierID + ":" + productID
}

func (c *CachedOracle) AdjustScore(ctx context.Context, req *models.RFQRequest, cand *models.SupplierCandidate, prod *models.Product) (scoring.Adjustment, error) {
	if req.ID == "" {
		return c.next.AdjustScore(ctx, req, cand, prod)
	}
	key := CacheKey(req.ID, cand.ID, prod.ID)

	val, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var adj scoring.Adjustment
		if jsonErr := json.Unmarshal([]byte(val), &adj); jsonErr == nil {
			metrics.RFQCacheLookups.WithLabelValues(cacheName, "hit").Inc()
			return adj, nil
		}
		metrics.RFQCacheLookups.WithLabelValues(cacheName, "corrupt").Inc()
	case errors.Is(err, redis.Nil):
		metrics.RFQCacheLookups.WithLabelValues(cacheName, "miss").Inc()
	default:
		metrics.RFQCacheLookups.WithLabelValues(cacheName, "error").Inc()
		c.logger.Debug("oracle cache read failed", map[string]interface{}{"key": key, "error": err})
	}

	adj, err := c.next.AdjustScore(ctx, req, cand, prod)
	if err != nil {
		return adj, err
	}

	if payload, err := json.Marshal(adj); err == nil {
		if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Debug("oracle cache write failed", map[string]interface{}{"key": key, "error": err})
		}
	}
	return adj, nil
}
