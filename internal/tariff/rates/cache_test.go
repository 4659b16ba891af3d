package rates

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tariff-workers/internal/common/logger"
	"tariff-workers/internal/models"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCachedTier_ServesRepeatLookupsFromRedis(t *testing.T) {
	mr, client := newMiniredis(t)
	lookup := &fakeLookup{inner: newSnapshot(t)}
	tiers := WithCache(DefaultTiers(lookup), client, time.Minute, logger.NewTestLogger(t))
	r := NewResolver(tiers)

	first, err := r.Resolve(context.Background(), "8544.99.00")
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), "8544.99.00")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, lookup.count("8544"))
	assert.Equal(t, 1, lookup.count("85449900"), "misses are cached too")

	assert.True(t, mr.Exists(CacheKey(models.TierHeading, "8544")))
	miss, err := mr.Get(CacheKey(models.TierExact, "85449900"))
	require.NoError(t, err)
	assert.Equal(t, missMarker, miss)

	ttl := mr.TTL(CacheKey(models.TierHeading, "8544"))
	assert.Equal(t, time.Minute, ttl)
}

func TestCachedTier_DoesNotCacheErrors(t *testing.T) {
	mr, client := newMiniredis(t)
	lookup := &fakeLookup{inner: newSnapshot(t), fail: map[string]bool{"854411": true}}
	tier := NewCachedTier(ExactTier(lookup), client, time.Minute, nil)

	_, err := tier.TryResolve(context.Background(), "854411")
	require.Error(t, err)
	assert.False(t, mr.Exists(CacheKey(models.TierExact, "854411")))
}

func TestCachedTier_RedisFailureBypassesCache(t *testing.T) {
	client, mock := redismock.NewClientMock()
	lookup := &fakeLookup{inner: newSnapshot(t)}
	tier := NewCachedTier(ExactTier(lookup), client, time.Minute, logger.NewTestLogger(t))

	rec, _ := lookup.inner.GetByCode(context.Background(), "7408")
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	key := CacheKey(models.TierExact, "7408")
	mock.ExpectGet(key).SetErr(errors.New("redis down"))
	mock.ExpectSet(key, string(data), time.Minute).SetErr(errors.New("redis down"))

	got, err := tier.TryResolve(context.Background(), "7408")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3.0, got.MFNRate)
	assert.Equal(t, 1, lookup.count("7408"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedTier_CorruptEntryIsRefetched(t *testing.T) {
	mr, client := newMiniredis(t)
	require.NoError(t, mr.Set(CacheKey(models.TierExact, "7408"), "{not json"))

	lookup := &fakeLookup{inner: newSnapshot(t)}
	tier := NewCachedTier(ExactTier(lookup), client, time.Minute, nil)

	got, err := tier.TryResolve(context.Background(), "7408")
	require.NoError(t, err)
	assert.Equal(t, "7408", got.Code)
	assert.Equal(t, 1, lookup.count("7408"))
}

func TestWithCache_Disabled(t *testing.T) {
	tiers := DefaultTiers(newSnapshot(t))
	assert.Equal(t, tiers, WithCache(tiers, nil, time.Minute, nil))

	_, client := newMiniredis(t)
	assert.Equal(t, tiers, WithCache(tiers, client, 0, nil))
}
