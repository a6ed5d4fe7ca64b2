package plans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"optical-franchise/internal/common/logger"
	"optical-franchise/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

const cacheName = "active_plan"

// ActivePlanCache holds each user's active subscription in Redis. Redis
// failures are logged and treated as misses.
type ActivePlanCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewActivePlanCache(client redis.Cmdable, ttl time.Duration, log logger.Logger) *ActivePlanCache {
	return &ActivePlanCache{client: client, ttl: ttl, logger: log}
}

func activePlanKey(userID int64) string {
	return fmt.Sprintf("user_plan:active:%d", userID)
}

func (c *ActivePlanCache) Get(ctx context.Context, userID int64) (*UserPlan, bool) {
	data, err := c.client.Get(ctx, activePlanKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Active plan cache read failed", map[string]interface{}{
				"userId": userID,
				"error":  err.Error(),
			})
		}
		metrics.CacheLookups.WithLabelValues(cacheName, "miss").Inc()
		return nil, false
	}

	var up UserPlan
	if err := json.Unmarshal(data, &up); err != nil {
		metrics.CacheLookups.WithLabelValues(cacheName, "miss").Inc()
		return nil, false
	}
	metrics.CacheLookups.WithLabelValues(cacheName, "hit").Inc()
	return &up, true
}

func (c *ActivePlanCache) Set(ctx context.Context, up *UserPlan) {
	data, err := json.Marshal(up)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, activePlanKey(up.UserID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("Active plan cache write failed", map[string]interface{}{
			"userId": up.UserID,
			"error":  err.Error(),
		})
	}
}

func (c *ActivePlanCache) Invalidate(ctx context.Context, userID int64) {
	if err := c.client.Del(ctx, activePlanKey(userID)).Err(); err != nil {
		c.logger.Warn("Active plan cache invalidation failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
	}
}
