package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tariff-workers/internal/common/logger"
	"tariff-workers/internal/models"
)

// missMarker records a legitimate miss so repeated lookups skip the store.
const missMarker = "-"

// CachedTier fronts a tier with redis, keyed by (tier, code). Entries are
// immutable until they expire. Redis failures are logged and bypassed.
type CachedTier struct {
	inner  TierResolver
	client redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedTier(inner TierResolver, client redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedTier {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &CachedTier{inner: inner, client: client, ttl: ttl, logger: log}
}

// WithCache wraps every tier. A nil client or zero TTL returns tiers unchanged.
func WithCache(tiers []TierResolver, client redis.Cmdable, ttl time.Duration, log logger.Logger) []TierResolver {
	if client == nil || ttl <= 0 {
		return tiers
	}
	out := make([]TierResolver, len(tiers))
	for i, t := range tiers {
		out[i] = NewCachedTier(t, client, ttl, log)
	}
	return out
}

// CacheKey is the redis key for one tier lookup.
func CacheKey(tier models.SourceTier, code string) string {
	return fmt.Sprintf("tariff:rate:%s:%s", tier, code)
}

func (c *CachedTier) Tier() models.SourceTier { return c.inner.Tier() }

func (c *CachedTier) Ceiling() int { return c.inner.Ceiling() }

func (c *CachedTier) Key(code string) (string, bool) { return c.inner.Key(code) }

func (c *CachedTier) TryResolve(ctx context.Context, key string) (*models.TariffCodeRecord, error) {
	cacheKey := CacheKey(c.Tier(), key)

	cached, err := c.client.Get(ctx, cacheKey).Result()
	switch {
	case err == nil:
		if cached == missMarker {
			return nil, nil
		}
		var rec models.TariffCodeRecord
		if jsonErr := json.Unmarshal([]byte(cached), &rec); jsonErr == nil {
			return &rec, nil
		}
		c.logger.Warn("discarding unreadable cache entry", map[string]interface{}{"key": cacheKey})
	case err != redis.Nil:
		c.logger.Warn("rate cache read failed", map[string]interface{}{
			"key":   cacheKey,
			"error": err,
		})
	}

	rec, err := c.inner.TryResolve(ctx, key)
	if err != nil {
		return nil, err
	}

	value := missMarker
	if rec != nil {
		data, jsonErr := json.Marshal(rec)
		if jsonErr != nil {
			return rec, nil
		}
		value = string(data)
	}
	if setErr := c.client.Set(ctx, cacheKey, value, c.ttl).Err(); setErr != nil {
		c.logger.Warn("rate cache write failed", map[string]interface{}{
			"key":   cacheKey,
			"error": setErr,
		})
	}
	return rec, nil
}
