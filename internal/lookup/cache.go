// internal/lookup/cache.go
package lookup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"garage-backoffice/internal/common/database"
	"garage-backoffice/internal/common/logger"
)

// CachedOracle serves repeated lookups for the same plate/department/procedure
// from Redis. Only successful responses are cached; failures always hit the
// oracle again so a user-initiated retry means something.
type CachedOracle struct {
	oracle Oracle
	redis  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedOracle(oracle Oracle, redisClient *database.RedisClient, ttl time.Duration, log logger.Logger) *CachedOracle {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedOracle{
		oracle: oracle,
		redis:  redisClient,
		ttl:    ttl,
		logger: log,
	}
}

func cacheKey(plate, postalCode, procedureCode string) string {
	return fmt.Sprintf("lookup:%s:%s:%s",
		strings.ToUpper(strings.ReplaceAll(plate, " ", "")), postalCode, procedureCode)
}

func (c *CachedOracle) Lookup(ctx context.Context, plate, postalCode, procedureCode string) (*Result, error) {
	key := cacheKey(plate, postalCode, procedureCode)

	var cached Result
	err := c.redis.GetJSON(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if err != redis.Nil {
		c.logger.Warn("Lookup cache read failed, falling through to oracle", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	result, err := c.oracle.Lookup(ctx, plate, postalCode, procedureCode)
	if err != nil {
		return nil, err
	}

	if cacheErr := c.redis.SetJSON(ctx, key, result, c.ttl); cacheErr != nil {
		c.logger.Warn("Lookup cache write failed", map[string]interface{}{
			"key":   key,
			"error": cacheErr.Error(),
		})
	}

	return result, nil
}
